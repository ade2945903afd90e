package ir

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractError_Is(t *testing.T) {
	err := Forbidden("caller %s is not the contract owner", "mallory")

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrUnauthorized))

	wrapped := fmt.Errorf("authorize lab: %w", err)
	assert.True(t, errors.Is(wrapped, ErrForbidden))
	assert.Equal(t, CodeForbidden, CodeOf(wrapped))
}

func TestContractError_Message(t *testing.T) {
	assert.Equal(t, "Forbidden (403)", ErrForbidden.Error())
	assert.Equal(t, "Unauthorized (401): lab revoked", Unauthorized("lab revoked").Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNone, CodeOf(nil))
	assert.Equal(t, CodeNone, CodeOf(errors.New("disk full")))
	assert.Equal(t, CodeUnauthorized, CodeOf(ErrUnauthorized))
}

func TestOutcome(t *testing.T) {
	ok := Succeeded(nil)
	assert.True(t, ok.OK())
	assert.NoError(t, ok.Err())
	assert.Equal(t, CaseSuccess, ok.Case)
	assert.NotNil(t, ok.Result)

	denied := Failed(ErrUnauthorized)
	assert.False(t, denied.OK())
	assert.ErrorIs(t, denied.Err(), ErrUnauthorized)
	assert.Equal(t, CaseUnauthorized, denied.Case)
	assert.Equal(t, CodeUnauthorized, denied.Code)
}

func TestParseActionRef(t *testing.T) {
	for _, a := range Actions {
		got, err := ParseActionRef(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	_, err := ParseActionRef("Stones.transfer")
	assert.ErrorIs(t, err, ErrInvalidCall)
}

func TestStoneJSONFlattensAttributes(t *testing.T) {
	s := Stone{
		ID: 1,
		StoneAttributes: StoneAttributes{
			Name: "Blue Sapphire", Weight: 500, Color: "Deep Blue",
			Clarity: "VS1", Cut: "Oval", Origin: "Sri Lanka",
		},
		Owner:        "ST1",
		RegisteredAt: 100,
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "Blue Sapphire", m["name"])
	assert.Equal(t, float64(500), m["weight"])
	assert.Equal(t, "ST1", m["owner"])
	assert.Equal(t, float64(100), m["registered_at"])
	assert.Equal(t, float64(1), m["stone_id"])
}

func TestLogEntryReceipt(t *testing.T) {
	entry := LogEntry{
		Invocation: Invocation{Seq: 3, TxID: "tx-3", Action: ActionRegisterStone, Caller: "A", Height: 7},
	}

	pending := entry.Receipt()
	assert.Equal(t, "", pending.Case)
	assert.Equal(t, int64(3), pending.Seq)

	entry.Completion = &Completion{Seq: 3, Case: CaseSuccess, Result: Object{"stone_id": Int(1)}}
	done := entry.Receipt()
	assert.Equal(t, CaseSuccess, done.Case)
	assert.Equal(t, Object{"stone_id": Int(1)}, done.Result)
	assert.Equal(t, At("A", 7), entry.Invocation.Context())
}
