package validate_test

import (
	"testing"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/testkit"
	"ghloader/internal/platform/validate"
)

type sample struct {
	Dir      string `env:"DATA_DIR" validate:"required"`
	Queue    int    `env:"QUEUE_LOAD" validate:"min=1,max=100"`
	Strategy string `json:"strategy" validate:"oneof=copy rows"`
	Day      string `validate:"omitempty,day"`
}

func TestStruct(t *testing.T) {
	ok := sample{Dir: "data", Queue: 3, Strategy: "copy", Day: "2024-03-01"}
	if err := validate.Struct(ok); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}

	cases := []struct {
		name  string
		mut   func(*sample)
		field string
		msg   string
	}{
		{"required uses env tag", func(s *sample) { s.Dir = "" }, "DATA_DIR", "DATA_DIR is a required field"},
		{"short min", func(s *sample) { s.Queue = 0 }, "QUEUE_LOAD", "QUEUE_LOAD must be at least 1"},
		{"short max", func(s *sample) { s.Queue = 101 }, "QUEUE_LOAD", "QUEUE_LOAD must be at most 100"},
		{"json tag fallback", func(s *sample) { s.Strategy = "x" }, "strategy", "strategy"},
		{"day", func(s *sample) { s.Day = "03/01/2024" }, "Day", "Day must be a YYYY-MM-DD date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := ok
			tc.mut(&s)
			err := validate.Struct(s)
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("want validation error, got %v", err)
			}
			e, _ := perr.As(err)
			if e.Field() != tc.field {
				t.Fatalf("field got %q want %q", e.Field(), tc.field)
			}
			testkit.MustContain(t, err.Error(), tc.msg)
		})
	}
}

func TestStructInvalidInput(t *testing.T) {
	if err := validate.Struct(42); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error for a non struct, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	if err := validate.RegisterValidation("even", func(fl validate.FieldLevel) bool { return fl.Field().Int()%2 == 0 }); err != nil {
		t.Fatal(err)
	}
	type v struct {
		N int `validate:"even"`
	}
	if err := validate.Struct(v{N: 2}); err != nil {
		t.Fatalf("even rejected: %v", err)
	}
	if err := validate.Struct(v{N: 3}); err == nil {
		t.Fatal("odd accepted")
	}
}

func TestFieldAndMessageNil(t *testing.T) {
	if f, m := validate.FieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("got %q %q", f, m)
	}
}
