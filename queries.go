// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"context"
	"strconv"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/cache"
)

// Cache entity names. Keys are entity|domain|username|suffix.
const (
	entityUsers         = "users"
	entityObjects       = "objects"
	entityObjectTypes   = "object_types"
	entityParameters    = "parameters"
	entityTasks         = "tasks"
	entityChecks        = "checks"
	entityNonCompliance = "non_compliance"
	entityInstructions  = "instructions"
	entityDomains       = "domains"
)

// dependents lists what else shows data from an entity, so a mutation
// refreshes those lists too.
var dependents = map[string][]string{
	entityUsers:       {entityTasks},
	entityObjects:     {entityTasks, entityChecks},
	entityObjectTypes: {entityObjects, entityParameters},
	entityParameters:  {entityNonCompliance, entityInstructions},
	entityTasks:       {entityChecks},
}

// queries are the cached reads behind every page.
type queries struct {
	client *api.Client
	cache  *cache.Cache
}

func credsOf(u *auth.User) api.Credentials {
	return api.Credentials{Domain: u.Domain, Username: u.Username, Token: u.Token}
}

func queryKey(entity string, creds api.Credentials, suffix string) string {
	return cache.Key(entity, creds.Domain, creds.Username, suffix)
}

func listOf[T any](ctx context.Context, q *queries, entity string, res api.Resource[T], creds api.Credentials) ([]T, error) {
	return cache.Fetch(ctx, q.cache, queryKey(entity, creds, "list"), func(ctx context.Context) ([]T, error) {
		return res.List(ctx, creds, nil)
	})
}

func getOne[T any](ctx context.Context, q *queries, entity string, res api.Resource[T], creds api.Credentials, id int) (T, error) {
	return cache.Fetch(ctx, q.cache, queryKey(entity, creds, "id:"+strconv.Itoa(id)), func(ctx context.Context) (T, error) {
		return res.Get(ctx, creds, id)
	})
}

func (q *queries) users(ctx context.Context, creds api.Credentials) ([]api.User, error) {
	return listOf(ctx, q, entityUsers, q.client.Users(), creds)
}

func (q *queries) objects(ctx context.Context, creds api.Credentials) ([]api.Object, error) {
	return listOf(ctx, q, entityObjects, q.client.Objects(), creds)
}

func (q *queries) objectTypes(ctx context.Context, creds api.Credentials) ([]api.ObjectType, error) {
	return listOf(ctx, q, entityObjectTypes, q.client.ObjectTypes(), creds)
}

func (q *queries) parameters(ctx context.Context, creds api.Credentials) ([]api.Parameter, error) {
	return listOf(ctx, q, entityParameters, q.client.Parameters(), creds)
}

func (q *queries) tasks(ctx context.Context, creds api.Credentials) ([]api.Task, error) {
	return listOf(ctx, q, entityTasks, q.client.Tasks(), creds)
}

func (q *queries) checks(ctx context.Context, creds api.Credentials) ([]api.Check, error) {
	return listOf(ctx, q, entityChecks, q.client.Checks(), creds)
}

func (q *queries) nonCompliance(ctx context.Context, creds api.Credentials) ([]api.NonCompliance, error) {
	return listOf(ctx, q, entityNonCompliance, q.client.NonCompliance(), creds)
}

func (q *queries) instructions(ctx context.Context, creds api.Credentials) ([]api.Instruction, error) {
	return listOf(ctx, q, entityInstructions, q.client.Instructions(), creds)
}

func (q *queries) parametersForType(ctx context.Context, creds api.Credentials, typeID int) ([]api.Parameter, error) {
	key := queryKey(entityParameters, creds, "type:"+strconv.Itoa(typeID))
	return cache.Fetch(ctx, q.cache, key, func(ctx context.Context) ([]api.Parameter, error) {
		return q.client.ParametersForType(ctx, creds, typeID)
	})
}

func (q *queries) tasksForObject(ctx context.Context, creds api.Credentials, objectID int) ([]api.Task, error) {
	key := queryKey(entityTasks, creds, "object:"+strconv.Itoa(objectID))
	return cache.Fetch(ctx, q.cache, key, func(ctx context.Context) ([]api.Task, error) {
		return q.client.TasksForObject(ctx, creds, objectID)
	})
}

func (q *queries) checksBetween(ctx context.Context, creds api.Credentials, from, to string) ([]api.Check, error) {
	key := queryKey(entityChecks, creds, "range:"+from+":"+to)
	return cache.Fetch(ctx, q.cache, key, func(ctx context.Context) ([]api.Check, error) {
		return q.client.ChecksBetween(ctx, creds, from, to)
	})
}

// domains backs the login form and is shared by every visitor.
func (q *queries) domains(ctx context.Context) ([]api.Domain, error) {
	return cache.Fetch(ctx, q.cache, cache.Key(entityDomains), func(ctx context.Context) ([]api.Domain, error) {
		return q.client.Domains(ctx)
	})
}

// invalidate drops every cached read of entity, and of the entities that
// display it, for the whole domain.
func (q *queries) invalidate(entity string, creds api.Credentials) int {
	n := q.cache.Invalidate(cache.Key(entity, creds.Domain, ""))
	for _, dep := range dependents[entity] {
		n += q.cache.Invalidate(cache.Key(dep, creds.Domain, ""))
	}
	return n
}
