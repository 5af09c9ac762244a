package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleLevelAllowsDocument(t *testing.T) {
	cases := []struct {
		level  RoleLevel
		action DocumentAction
		want   bool
	}{
		{RoleAdmin, ActionRead, true},
		{RoleAdmin, ActionDownload, true},
		{RoleAdmin, ActionEdit, true},
		{RoleAdmin, ActionDelete, true},
		{RoleEditor, ActionRead, true},
		{RoleEditor, ActionDownload, true},
		{RoleEditor, ActionEdit, true},
		{RoleEditor, ActionDelete, false},
		{RoleViewer, ActionRead, true},
		{RoleViewer, ActionDownload, false},
		{RoleViewer, ActionEdit, false},
		{RoleViewer, ActionDelete, false},
	}

	for _, tc := range cases {
		got := tc.level.AllowsDocument(tc.action)
		assert.Equal(t, tc.want, got, "%s / %s", tc.level, tc.action)
	}
}

func TestRoleLevelUnknownDeniesEverything(t *testing.T) {
	for _, action := range []DocumentAction{ActionRead, ActionDownload, ActionEdit, ActionDelete} {
		assert.False(t, RoleLevel("owner").AllowsDocument(action))
	}
}

func TestACLValidate(t *testing.T) {
	userID := uint64(1)
	groupID := uint64(2)

	cases := []struct {
		name    string
		acl     ACL
		wantErr error
	}{
		{"user grant", ACL{UserID: &userID, Permission: ActionRead}, nil},
		{"group grant", ACL{GroupID: &groupID, Permission: ActionDownload}, nil},
		{"both principals", ACL{UserID: &userID, GroupID: &groupID, Permission: ActionRead}, ErrInvalidPrincipal},
		{"no principal", ACL{Permission: ActionRead}, ErrInvalidPrincipal},
		{"unknown permission", ACL{UserID: &userID, Permission: "admin"}, ErrInvalidPermission},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.acl.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestFolderACLValidate(t *testing.T) {
	userID := uint64(1)

	assert.NoError(t, (&FolderACL{UserID: &userID, Permission: FolderRead}).Validate())
	assert.ErrorIs(t, (&FolderACL{Permission: FolderRead}).Validate(), ErrInvalidPrincipal)
	// Document actions are not folder actions.
	assert.ErrorIs(t, (&FolderACL{UserID: &userID, Permission: "download"}).Validate(), ErrInvalidPermission)
}

func TestScopeKeyFor(t *testing.T) {
	tenant := &Tenant{ID: 7}

	assert.Equal(t, "abc123", ScopeKeyFor(DedupGlobal, "abc123", tenant))
	assert.Equal(t, "abc123|7", ScopeKeyFor(DedupPerTenant, "abc123", tenant))
	// Two tenants under per-tenant scope never share a key.
	assert.NotEqual(t,
		ScopeKeyFor(DedupPerTenant, "abc123", tenant),
		ScopeKeyFor(DedupPerTenant, "abc123", &Tenant{ID: 8}),
	)
}
