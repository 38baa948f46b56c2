package pvpc4

import (
	"testing"

	"github.com/google/uuid"
)

func idgenID(t *testing.T, id string) []byte {
	t.Helper()
	u, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}
	return u[:]
}
