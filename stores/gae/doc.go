//go:build !wasm
// +build !wasm

// Package gae provides Google Cloud Datastore implementations of the member and
// activity stores. It supports multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
// The package uses the following Datastore kinds:
//   - Member: Member accounts; authentication ids are an indexed list property
//   - Activity: Community events with normalized dates
//
// # Namespacing
//
// Pass a namespace when creating stores to isolate data between tenants:
//
//	members := gae.NewMemberStore(client, "tenant-123")
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	members := gae.NewMemberStore(client, "")  // default namespace
//	activities := gae.NewActivityStore(client, "")
package gae
