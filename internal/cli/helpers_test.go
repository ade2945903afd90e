package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/testutil"
)

func init() {
	color.NoColor = true
}

// cliEnv is a temp-dir call log plus the flags every ledger command needs.
type cliEnv struct {
	db    string
	owner string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{
		db:    filepath.Join(t.TempDir(), "gemledger.db"),
		owner: string(testutil.Owner),
	}
}

// run executes the root command with the env's --db and --owner appended.
func (e *cliEnv) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return runCLI(t, append(args, "--db", e.db, "--owner", e.owner)...)
}

// runJSON runs a command with --format json and decodes the envelope.
func (e *cliEnv) runJSON(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	stdout, _, err := e.run(t, append(args, "--format", "json")...)
	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), "stdout: %s", stdout)
	return resp, err
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

const sapphireArgs = `{"name":"Blue Sapphire","weight":500,"color":"Deep Blue","clarity":"VS1","cut":"Oval","origin":"Sri Lanka"}`

func verifyArgs(grade string) string {
	return `{"stone_id":1,"lab_name":"GIA","grade":"` + grade + `","report_number":"GIA123456789","notes":"n"}`
}

const heatArgs = `{"stone_id":1,"treatment_type":"Heat Treatment","description":"Heated","performed_by":"Ratnapura Lapidary","performed_at":95}`

// seed registers a stone, authorizes LabX, verifies the stone and
// discloses one treatment.
func (e *cliEnv) seed(t *testing.T) {
	t.Helper()
	calls := [][]string{
		{"invoke", "Stones.registerStone", "--as", e.owner, "--args", sapphireArgs},
		{"invoke", "Authorization.authorizeLab", "--as", e.owner, "--args", `{"lab":"` + string(testutil.LabX) + `"}`},
		{"invoke", "Verifications.verifyStone", "--as", string(testutil.LabX), "--args", verifyArgs("AAA")},
		{"invoke", "Treatments.discloseTreatment", "--as", string(testutil.Mallory), "--args", heatArgs},
	}
	for _, c := range calls {
		_, _, err := e.run(t, c...)
		require.NoError(t, err, "%v", c)
	}
}
