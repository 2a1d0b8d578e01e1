package router

import (
	"context"
	"io"
	"testing"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/logger"
)

type fakeWriter struct {
	assignmentRows []types.AssignmentEventRow
	driverRows     []types.DriverStatusEventRow
	insertErr      error
}

func (f *fakeWriter) InsertAssignment(_ context.Context, row types.AssignmentEventRow) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.assignmentRows = append(f.assignmentRows, row)
	return nil
}

func (f *fakeWriter) InsertDriverEvent(_ context.Context, row types.DriverStatusEventRow) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.driverRows = append(f.driverRows, row)
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}
