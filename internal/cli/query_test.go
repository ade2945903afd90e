package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/testutil"
)

func TestQuery_Records(t *testing.T) {
	env := newCLIEnv(t)
	env.seed(t)

	resp, err := env.runJSON(t, "query", "stone", "1")
	require.NoError(t, err)
	stone := resp["data"].(map[string]any)
	assert.Equal(t, float64(1), stone["stone_id"])
	assert.Equal(t, "Blue Sapphire", stone["name"])
	assert.Equal(t, float64(500), stone["weight"])
	assert.Equal(t, env.owner, stone["owner"])
	assert.Equal(t, float64(1), stone["registered_at"])

	resp, err = env.runJSON(t, "query", "verification", "1")
	require.NoError(t, err)
	v := resp["data"].(map[string]any)
	assert.Equal(t, "AAA", v["grade"])
	assert.Equal(t, string(testutil.LabX), v["verified_by"])
	assert.Equal(t, float64(3), v["verified_at"])

	resp, err = env.runJSON(t, "query", "treatment", "1", "1")
	require.NoError(t, err)
	tr := resp["data"].(map[string]any)
	assert.Equal(t, "Heat Treatment", tr["treatment_type"])
	assert.Equal(t, string(testutil.Mallory), tr["disclosed_by"])
	assert.Equal(t, float64(95), tr["performed_at"])

	resp, err = env.runJSON(t, "query", "treatments", "1")
	require.NoError(t, err)
	list := resp["data"].(map[string]any)
	assert.Equal(t, float64(1), list["count"])
	assert.Len(t, list["treatments"], 1)

	resp, err = env.runJSON(t, "query", "last-stone-id")
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp["data"].(map[string]any)["last_stone_id"])

	resp, err = env.runJSON(t, "query", "authorized", string(testutil.LabX))
	require.NoError(t, err)
	assert.Equal(t, true, resp["data"].(map[string]any)["authorized"])

	resp, err = env.runJSON(t, "query", "authorized", string(testutil.Mallory))
	require.NoError(t, err)
	assert.Equal(t, false, resp["data"].(map[string]any)["authorized"])
}

func TestQuery_VerificationOverwritten(t *testing.T) {
	env := newCLIEnv(t)
	env.seed(t)

	_, _, err := env.run(t, "invoke", "Verifications.verifyStone", "--as", string(testutil.LabX), "--args", verifyArgs("B"))
	require.NoError(t, err)

	stdout, _, err := env.run(t, "query", "verification", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"grade": "B"`)
	assert.Contains(t, stdout, `"verified_at": 5`)
}

func TestQuery_NotFound(t *testing.T) {
	env := newCLIEnv(t)

	tests := [][]string{
		{"stone", "1"},
		{"stone", "0"},
		{"verification", "7"},
		{"treatment", "1", "1"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			resp, err := env.runJSON(t, append([]string{"query"}, args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Equal(t, "error", resp["status"])
			assert.Equal(t, "E_NOT_FOUND", resp["error"].(map[string]any)["code"])
		})
	}
}

func TestQuery_EmptyLedger(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON(t, "query", "treatments", "9")
	require.NoError(t, err)
	data := resp["data"].(map[string]any)
	assert.Equal(t, float64(0), data["count"])
	assert.Equal(t, []any{}, data["treatments"])

	resp, err = env.runJSON(t, "query", "last-stone-id")
	require.NoError(t, err)
	assert.Equal(t, float64(0), resp["data"].(map[string]any)["last_stone_id"])
}

func TestQuery_BadID(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run(t, "query", "stone", "one")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `stone id "one" is not an integer`)
}

func TestQuery_TextNotFound(t *testing.T) {
	env := newCLIEnv(t)
	stdout, _, err := env.run(t, "query", "stone", "3")
	require.Error(t, err)
	assert.Contains(t, stdout, "Error [E_NOT_FOUND]: stone not found")
}
