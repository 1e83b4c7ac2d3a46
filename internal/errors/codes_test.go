package errors_test

import (
	"errors"
	"testing"

	storeerrors "github.com/Ccjx3/KVDatabase/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestStoreError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("disk gone")
	err := storeerrors.IOFailure("dump failed", cause)

	assert.Same(t, cause, errors.Unwrap(err))
	assert.ErrorIs(t, err, cause)
}

func TestStoreError_IsComparesByCode(t *testing.T) {
	a := storeerrors.KeyMissing("x")
	b := storeerrors.KeyMissing("y")
	c := storeerrors.KeyExists("x")

	assert.ErrorIs(t, a, b, "two KeyMissing errors share a code regardless of message")
	assert.False(t, errors.Is(a, c))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, storeerrors.CodeTxnNotActive, storeerrors.GetCode(storeerrors.TxnNotActive(7)))
	assert.Equal(t, storeerrors.Code(0), storeerrors.GetCode(errors.New("plain")))
}
