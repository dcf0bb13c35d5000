package services

import (
	"context"
	"testing"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeService_Resolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		scope   string
		want    models.ScopeSet
		wantErr bool
	}{
		{"empty", "", models.ScopeSet{}, false},
		{"single", "read", models.ScopeSet{"read"}, false},
		{"duplicates collapse", "read  write read", models.ScopeSet{"read", "write"}, false},
		{"one unknown rejects all", "read admin", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.scopes.Resolve(ctx, tt.scope)
			if tt.wantErr {
				assertKind(t, err, KindInvalidScope)
				assert.Contains(t, err.Error(), "admin")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	all, err := env.scopes.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
