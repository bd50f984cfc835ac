// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

//go:build integration

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"

	. "github.com/onsi/gomega" //nolint:revive // gomega convention
)

// browser is an API caller with its own cookie jar.
type browser struct {
	http *http.Client
}

func newBrowser() *browser {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &browser{http: &http.Client{Jar: jar}}
}

type reply struct {
	Status int
	Body   []byte
}

func (r reply) ErrorCode() string {
	var body struct {
		Error string `json:"error"`
	}
	Expect(json.Unmarshal(r.Body, &body)).To(Succeed())
	return body.Error
}

func (r reply) Into(v any) {
	Expect(json.Unmarshal(r.Body, v)).To(Succeed(), string(r.Body))
}

func (b *browser) call(method, path string, body any) reply {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, suite.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return reply{Status: resp.StatusCode, Body: raw}
}

func (b *browser) signup(login, email, password string) reply {
	return b.call(http.MethodPost, "/api/users/signup", map[string]string{"login": login, "email": email, "password": password})
}

func (b *browser) signin(login, password string) reply {
	return b.call(http.MethodPost, "/api/users/signin", map[string]string{"login": login, "password": password})
}
