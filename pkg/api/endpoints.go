// Copyright (C) 2025 Joshua Goldstein

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// Login exchanges a password for a session token.
func (c *Client) Login(ctx context.Context, domain, username, password string) (LoginResult, error) {
	data, err := c.do(ctx, http.MethodPost, "/auth/login", nil, LoginRequest{
		Domain:   domain,
		Username: username,
		Password: password,
	})
	if err != nil {
		return LoginResult{}, err
	}
	res, err := decodeOne[LoginResult](data)
	if err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, errors.New("api: login response carries no token")
	}
	return res, nil
}

// CheckSession verifies the token and returns the user it belongs to.
func (c *Client) CheckSession(ctx context.Context, creds Credentials) (User, error) {
	data, err := c.authed(ctx, creds, http.MethodGet, "/auth/check", nil, nil)
	if err != nil {
		return User{}, err
	}
	return decodeOne[User](data)
}

func (c *Client) Logout(ctx context.Context, creds Credentials) error {
	_, err := c.authed(ctx, creds, http.MethodPost, "/auth/logout", nil, nil)
	return err
}

// Domains lists tenants for the login form. It needs no credentials.
func (c *Client) Domains(ctx context.Context) ([]Domain, error) {
	data, err := c.do(ctx, http.MethodGet, "/domains", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Domain](data)
}

func (c *Client) Users() Resource[User]             { return NewResource[User](c, "/users") }
func (c *Client) Objects() Resource[Object]         { return NewResource[Object](c, "/objects") }
func (c *Client) ObjectTypes() Resource[ObjectType] { return NewResource[ObjectType](c, "/object_types") }
func (c *Client) Parameters() Resource[Parameter]   { return NewResource[Parameter](c, "/parameters") }
func (c *Client) Tasks() Resource[Task]             { return NewResource[Task](c, "/tasks") }
func (c *Client) Checks() Resource[Check]           { return NewResource[Check](c, "/checks") }
func (c *Client) NonCompliance() Resource[NonCompliance] {
	return NewResource[NonCompliance](c, "/non_compliance")
}
func (c *Client) Instructions() Resource[Instruction] {
	return NewResource[Instruction](c, "/instructions")
}

// ParametersForType lists the parameters of one object type.
func (c *Client) ParametersForType(ctx context.Context, creds Credentials, objectTypeID int) ([]Parameter, error) {
	return c.Parameters().List(ctx, creds, url.Values{"object_type_id": {strconv.Itoa(objectTypeID)}})
}

// TasksForObject lists the tasks planned on one object.
func (c *Client) TasksForObject(ctx context.Context, creds Credentials, objectID int) ([]Task, error) {
	return c.Tasks().List(ctx, creds, url.Values{"object_id": {strconv.Itoa(objectID)}})
}

// ChecksBetween lists checks dated within [from, to], both YYYY-MM-DD.
func (c *Client) ChecksBetween(ctx context.Context, creds Credentials, from, to string) ([]Check, error) {
	return c.Checks().List(ctx, creds, url.Values{"from": {from}, "to": {to}})
}
