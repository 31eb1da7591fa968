package livesync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestField_Lifecycle(t *testing.T) {
	f := NewField(10)
	state, err := f.State()
	assert.Equal(t, FieldCommitted, state)
	assert.NoError(t, err)

	f.Set(20)
	assert.Equal(t, 20, f.Value())
	state, _ = f.State()
	assert.Equal(t, FieldPending, state)

	// sunucudan gelen eski değer bekleyen değeri ezmez
	f.Observe(10)
	assert.Equal(t, 20, f.Value())

	f.Commit(21)
	assert.Equal(t, 21, f.Value())
	state, _ = f.State()
	assert.Equal(t, FieldCommitted, state)
}

func TestField_Rollback(t *testing.T) {
	f := NewField("a")
	f.Set("b")
	f.Rollback(errors.New("rejected"))

	assert.Equal(t, "a", f.Value())
	state, err := f.State()
	assert.Equal(t, FieldRolledBack, state)
	assert.EqualError(t, err, "rejected")

	f.Set("c")
	_, err = f.State()
	assert.NoError(t, err)
}
