package tenancy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"docmanager/internal/domain"
)

func TestNamespaceRequiresTenant(t *testing.T) {
	strategy := &Namespace{}

	err := strategy.Run(context.Background(), nil, func(tx *gorm.DB) error {
		t.Fatal("callback must not run without a tenant")
		return nil
	})

	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestNamespaceRejectsMalformedIsolationKey(t *testing.T) {
	strategy := &Namespace{}

	// The key is interpolated into SET search_path, so anything outside
	// the provisioned shape is refused before reaching the database.
	for _, key := range []string{"", "Acme", "1acme", "acme;drop table users", "acme-corp"} {
		tenant := &domain.Tenant{ID: 1, IsolationKey: key}
		err := strategy.Run(context.Background(), tenant, func(tx *gorm.DB) error {
			t.Fatalf("callback must not run for key %q", key)
			return nil
		})
		assert.Error(t, err, "key %q", key)
	}
}

func TestIsolationKeyPatternAcceptsProvisionedKeys(t *testing.T) {
	for _, key := range []string{"acme", "acme_corp", "t42", "a"} {
		assert.True(t, isolationKeyPattern.MatchString(key), key)
	}
}
