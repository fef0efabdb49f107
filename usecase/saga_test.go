package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func Test_sagaUnwindOrder(t *testing.T) {
	sg := newSaga(hclog.NewNullLogger())
	var undone []string

	for _, step := range []string{"a", "b", "c"} {
		step := step
		sg.record(step, func(context.Context) error {
			undone = append(undone, step)
			return nil
		})
	}

	report := sg.unwind(context.Background())
	require.Equal(t, []string{"c", "b", "a"}, undone)
	require.True(t, report.Clean())
	require.Equal(t, 3, report.Attempted)
	require.Contains(t, report.Note(), "all succeeded")
}

func Test_sagaUnwindContinuesPastFailures(t *testing.T) {
	sg := newSaga(hclog.NewNullLogger())
	var undone []string

	sg.record("first", func(context.Context) error {
		undone = append(undone, "first")
		return nil
	})
	sg.record("second", func(context.Context) error {
		return errors.New("target unreachable")
	})
	sg.record("third", func(context.Context) error {
		undone = append(undone, "third")
		return nil
	})

	report := sg.unwind(context.Background())

	// the failing step does not stop the older ones from being undone
	require.Equal(t, []string{"third", "first"}, undone)
	require.False(t, report.Clean())
	require.Len(t, report.Failures.Errors, 1)
	require.Contains(t, report.Note(), "1 failed")
}

func Test_sagaEmptyUnwind(t *testing.T) {
	sg := newSaga(hclog.NewNullLogger())
	report := sg.unwind(context.Background())
	require.True(t, report.Clean())
	require.Equal(t, "no rollback required", report.Note())
}

func Test_SagaErrorUnwrap(t *testing.T) {
	trigger := errors.New("boom")
	err := &SagaError{Step: "add member", Trigger: trigger, Compensation: &CompensationReport{}}
	require.ErrorIs(t, err, trigger)
	require.Contains(t, err.Error(), "add member")
}
