package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSendStallsOnFullQueue(t *testing.T) {
	ch := make(chan int, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := range 2 {
		if err := send(ctx, ch, i); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	done := make(chan error, 1)
	go func() { done <- send(ctx, ch, 2) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("third send should stall until the deadline, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send never returned")
	}
	if len(ch) != 2 {
		t.Fatalf("queue grew past its capacity: %d", len(ch))
	}
}

func TestSendResumesWhenConsumerDrains(t *testing.T) {
	ch := make(chan int, 1)
	ctx := context.Background()
	if err := send(ctx, ch, 1); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- send(ctx, ch, 2) }()

	select {
	case <-done:
		t.Fatal("send should block while the queue is full")
	case <-time.After(20 * time.Millisecond):
	}
	if v, err := recv(ctx, ch); err != nil || v != 1 {
		t.Fatalf("recv = %d, %v", v, err)
	}
	if err := <-done; err != nil {
		t.Fatalf("blocked send: %v", err)
	}
	if v, _ := recv(ctx, ch); v != 2 {
		t.Fatalf("order broken, got %d", v)
	}
}

func TestRecvCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := recv(ctx, make(chan string))
	if !errors.Is(err, context.Canceled) || v != "" {
		t.Fatalf("recv on canceled ctx = %q, %v", v, err)
	}
}
