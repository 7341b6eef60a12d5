//go:build !wasm
// +build !wasm

// Package gorm provides GORM-based member and activity stores.
// It supports any database that GORM supports (PostgreSQL, MySQL, SQLite, etc.);
// the agora-auth binary opens it with the PostgreSQL driver.
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - members: Member accounts, with the lowered email indexed for lookups
//   - member_authentications: Authentication ids linked to members, in link order
//   - activities: Community events with normalized dates
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	_ = gormstore.AutoMigrate(db)
//	members := gormstore.NewMemberStore(db)
//	activities := gormstore.NewActivityStore(db)
package gorm
