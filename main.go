// Copyright (C) 2025 Joshua Goldstein

// Command crm is the inspection CRM admin console: a server-rendered web
// front end over the inspection REST backend.
//
// Usage:
//
//	crm serve
//	crm export users --domain acme --username admin --filter email=ivan
//
// See --help for all available options.
package main

func main() {
	Execute()
}
