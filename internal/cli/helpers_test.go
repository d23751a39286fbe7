package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// cartProgram totals /items prices into "total".
const cartProgram = `definition:
  name: cart_total
  input_schema:
    type: object
  output_schema:
    type: object
    properties:
      total:
        type: number
steps:
  - id: prices
    operation: {op: pluck, path: /items, key: price}
    output_path: /temp/prices
  - id: total
    operation: {op: sum, list_path: /temp/prices}
    output_path: /total
`

// degradedProgram declares an output key that no step writes.
const degradedProgram = `definition:
  name: cart_grand_total
  output_schema:
    properties:
      grand_total: {type: number}
steps:
  - id: prices
    operation: {op: pluck, path: /items, key: price}
    output_path: /temp/prices
`

const cartInput = `{"items": [{"price": 10}, {"price": 5}]}`

const cartFixtures = `fixtures:
  - name: two_items
    input: {items: [{price: 10}, {price: 5}]}
    expected_output_keys: [total]
  - name: empty
    input: {items: []}
    expected_output_keys: [total]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type cmdOutput struct {
	stdout string
	stderr string
}

// execute runs cmd with args and captures both output streams.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (cmdOutput, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	cmd.SetContext(testContext(t))

	err := cmd.Execute()
	return cmdOutput{stdout: stdout.String(), stderr: stderr.String()}, err
}

// decodeResponse parses a JSON CLIResponse with an untyped payload.
func decodeResponse(t *testing.T, data string) (CLIResponse, map[string]any) {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(data), &resp))

	payload, _ := resp.Data.(map[string]any)
	return resp, payload
}

func textOpts() *RootOptions {
	return &RootOptions{Format: "text"}
}

func jsonOpts() *RootOptions {
	return &RootOptions{Format: "json"}
}
