package unattended

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   Table
		policy  Policy
		wantErr string
	}{
		{"empty", nil, ConsumeOnce, "prompt table is empty"},
		{"empty match", Table{{Match: "", Response: "y"}}, ConsumeOnce, "empty match"},
		{"duplicate", Table{{Match: "a", Response: "1"}, {Match: "a", Response: "2"}}, ConsumeOnce, "duplicates rule 0"},
		{"self trigger repeat", Table{{Match: "ok", Response: "x"}, {Match: "y", Response: "yes", Repeat: true}}, ConsumeOnce, "re-trigger"},
		{"self trigger forever", Table{{Match: "y", Response: "yes"}}, RepeatForever, "re-trigger"},
		{"only repeat rules", Table{{Match: "a", Response: "b", Repeat: true}}, ConsumeOnce, "at least one rule without repeat"},
		{"self trigger once is fine", Table{{Match: "y", Response: "yes"}}, ConsumeOnce, ""},
		{"default", DefaultConfig().Rules, ConsumeOnce, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate(tt.policy)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTableRequiredAndLongestMatch(t *testing.T) {
	table := Table{
		{Match: "short", Response: "1"},
		{Match: "a much longer prompt", Response: "2", Repeat: true},
		{Match: "medium one", Response: "3"},
	}
	assert.Equal(t, Table{table[0], table[2]}, table.Required())
	assert.Equal(t, len("a much longer prompt"), table.LongestMatch())
	assert.Zero(t, Table(nil).LongestMatch())
}

func TestTablePlaceholdersAndExpand(t *testing.T) {
	table := Table{
		{Match: "Node ID:", Response: "${node_id}"},
		{Match: "Wallet ${wallet}?", Response: "${node_id}-$HOME"},
	}
	assert.Equal(t, []string{"node_id", "wallet"}, table.Placeholders())

	out, err := table.Expand(map[string]string{"node_id": "N1", "wallet": "w0"})
	require.NoError(t, err)
	assert.Equal(t, Table{
		{Match: "Node ID:", Response: "N1"},
		{Match: "Wallet w0?", Response: "N1-$HOME"},
	}, out)
	// The source table is unchanged.
	assert.Equal(t, "${node_id}", table[0].Response)

	_, err = table.Expand(map[string]string{"wallet": "w0"})
	assert.EqualError(t, err, `unattended: no value for variable "node_id"`)
}

func TestVarsFromEnv(t *testing.T) {
	t.Setenv("UNATTENDED_NODE_ID", "from-env")
	vars := VarsFromEnv([]string{"node_id", "unset_var"})
	assert.Equal(t, map[string]string{"node_id": "from-env"}, vars)
}

func TestRuleString(t *testing.T) {
	assert.Equal(t, `"Agree?" -> "Y"`, Rule{Match: "Agree?", Response: "Y"}.String())
}
