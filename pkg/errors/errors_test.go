package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "creditgroup: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			wantMsg: "creditgroup: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 3, 1)

	want := "creditgroup: Predict: dimension mismatch on axis 1 (features). Expected 10, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LGBMClassifier", "Predict")

	want := "creditgroup: LGBMClassifier: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestNewOverrideError(t *testing.T) {
	err := NewOverrideError("id_cols", "bogus_cols", "Monthly_Balance", "unknown destination group")

	var overrideErr *OverrideError
	require.True(t, As(err, &overrideErr))
	assert.Equal(t, "Monthly_Balance", overrideErr.Column)
	assert.Equal(t,
		"creditgroup: override id_cols -> bogus_cols for 'Monthly_Balance' not applied: unknown destination group",
		err.Error())
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("/data/train.csv", "")

	assert.True(t, Is(err, ErrNotFound))
	assert.Equal(t, "creditgroup: /data/train.csv does not exist", err.Error())

	wrapped := Wrap(err, "load credit data")
	assert.True(t, Is(wrapped, ErrNotFound))

	var nf *NotFoundError
	require.True(t, As(wrapped, &nf))
	assert.Equal(t, "/data/train.csv", nf.Path)
}

func TestWarn(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("Age", "object", "numeric", "3 values could not be parsed"))

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "column 'Age': data converted from object to numeric")
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Fit", 10, 0)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in Fit: expected 10, got 0") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}
