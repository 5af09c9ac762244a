package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"docmanager/internal/config"
	"docmanager/internal/db"
	"docmanager/internal/domain"
	"docmanager/internal/tenancy"
)

var isolationKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// create-tenant provisions a tenant row and, under the namespace
// isolation strategy, its schema with migrated tables.
func main() {
	name := flag.String("name", "", "tenant name (required)")
	domainName := flag.String("domain", "", "routing domain; derived from the name when omitted")
	flag.Parse()

	if *name == "" {
		log.Fatal("usage: create-tenant -name <name> [-domain <domain>]")
	}
	if *domainName == "" {
		*domainName = strings.ToLower(strings.ReplaceAll(*name, " ", "_"))
	}
	if !isolationKeyPattern.MatchString(*domainName) {
		log.Fatalf("domain %q is not a valid isolation key (lowercase letters, digits, underscores)", *domainName)
	}

	cfg := config.Load()
	appDb, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("error connecting to db %v", err)
	}
	defer db.Close(appDb)

	if err := db.Migrate(appDb); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	store := tenancy.NewTenantStore(appDb)

	if _, err := store.FindByName(ctx, *name); err == nil {
		log.Fatalf("tenant %q already exists", *name)
	}

	tenant := &domain.Tenant{
		Name:         *name,
		IsolationKey: *domainName,
		Domain:       *domainName,
		IsActive:     true,
	}
	if err := store.Create(ctx, tenant); err != nil {
		log.Fatalf("error creating tenant: %v", err)
	}
	log.Printf("Created tenant: %s", tenant.Name)

	if cfg.TenantIsolation == "namespace" {
		if err := provisionSchema(appDb, tenant.IsolationKey); err != nil {
			log.Fatalf("error provisioning schema: %v", err)
		}
		log.Printf("Created schema: %s", tenant.IsolationKey)
	}

	fmt.Printf("\nTenant created successfully!\nAccess at: http://%s.localhost:%s\n", tenant.Domain, cfg.ServerPort)
}

// provisionSchema creates the tenant schema and migrates the
// tenant-scoped tables into it on a pinned connection. AutoMigrate
// also walks model relationships, pulling in StoredFile and User;
// those carry public-qualified table names, so the shared tables are
// re-migrated in place rather than duplicated inside the schema.
func provisionSchema(appDb *gorm.DB, schema string) error {
	return appDb.Connection(func(tx *gorm.DB) (err error) {
		if err = tx.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return err
		}
		if err = tx.Exec(fmt.Sprintf("SET search_path TO %s", schema)).Error; err != nil {
			return err
		}
		defer func() {
			if rerr := tx.Exec("SET search_path TO public").Error; rerr != nil && err == nil {
				err = rerr
			}
		}()
		return tx.AutoMigrate(
			&domain.Role{},
			&domain.Group{},
			&domain.Folder{},
			&domain.FolderACL{},
			&domain.Document{},
			&domain.ACL{},
			&domain.AuditLog{},
		)
	})
}
