// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

//go:build integration

package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/sharkteam/sharkteam/internal/account"
)

var _ = Describe("Account API", func() {
	BeforeEach(resetState)

	Describe("signup", func() {
		It("creates the account and logs the caller in", func() {
			b := newBrowser()
			r := b.signup("shark", "shark@example.com", "fin")
			Expect(r.Status).To(Equal(http.StatusOK))

			var p account.Profile
			r.Into(&p)
			Expect(p.Login).To(Equal("shark"))
			Expect(p.Email).To(Equal("shark@example.com"))

			me := b.call(http.MethodGet, "/api/users/me", nil)
			Expect(me.Status).To(Equal(http.StatusOK))
		})

		It("rejects a taken login with 409", func() {
			Expect(newBrowser().signup("shark", "a@example.com", "fin").Status).To(Equal(http.StatusOK))
			r := newBrowser().signup("shark", "b@example.com", "fin")
			Expect(r.Status).To(Equal(http.StatusConflict))
			Expect(r.ErrorCode()).To(Equal(account.CodeLoginTaken))
		})

		It("refuses a caller who is already logged in", func() {
			b := newBrowser()
			Expect(b.signup("shark", "a@example.com", "fin").Status).To(Equal(http.StatusOK))
			r := b.signup("other", "o@example.com", "fin")
			Expect(r.Status).To(Equal(http.StatusForbidden))
		})

		It("rejects empty fields with 400", func() {
			Expect(newBrowser().signup("", "a@example.com", "fin").Status).To(Equal(http.StatusBadRequest))
			Expect(newBrowser().signup("x", "a@example.com", "").Status).To(Equal(http.StatusBadRequest))
		})

		It("admits exactly one of many concurrent signups for one login", func() {
			var wg sync.WaitGroup
			statuses := make([]int, 6)
			for i := range statuses {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					statuses[i] = newBrowser().signup("racer", fmt.Sprintf("r%d@example.com", i), "pw").Status
				}()
			}
			wg.Wait()
			Expect(statuses).To(ContainElement(http.StatusOK))
			ok := 0
			for _, s := range statuses {
				if s == http.StatusOK {
					ok++
				} else {
					Expect(s).To(Equal(http.StatusConflict))
				}
			}
			Expect(ok).To(Equal(1))
		})
	})

	Describe("signin and logout", func() {
		BeforeEach(func() {
			Expect(newBrowser().signup("shark", "shark@example.com", "fin").Status).To(Equal(http.StatusOK))
		})

		It("opens a session for correct credentials", func() {
			b := newBrowser()
			Expect(b.signin("shark", "fin").Status).To(Equal(http.StatusOK))
			Expect(b.call(http.MethodGet, "/api/users/me", nil).Status).To(Equal(http.StatusOK))
		})

		It("fails identically for a wrong password and an unknown login", func() {
			wrong := newBrowser().signin("shark", "tail")
			unknown := newBrowser().signin("whale", "fin")
			Expect(wrong.Status).To(Equal(http.StatusForbidden))
			Expect(unknown.Status).To(Equal(http.StatusForbidden))
			Expect(wrong.Body).To(Equal(unknown.Body))
		})

		It("ends the session on logout", func() {
			b := newBrowser()
			Expect(b.signin("shark", "fin").Status).To(Equal(http.StatusOK))
			Expect(b.call(http.MethodPost, "/api/users/logout", nil).Status).To(Equal(http.StatusOK))
			Expect(b.call(http.MethodGet, "/api/users/me", nil).Status).To(Equal(http.StatusForbidden))
			Expect(b.call(http.MethodPost, "/api/users/logout", nil).Status).To(Equal(http.StatusForbidden))
		})

		It("keeps sessions of one user independent", func() {
			first, second := newBrowser(), newBrowser()
			Expect(first.signin("shark", "fin").Status).To(Equal(http.StatusOK))
			Expect(second.signin("shark", "fin").Status).To(Equal(http.StatusOK))
			Expect(first.call(http.MethodPost, "/api/users/logout", nil).Status).To(Equal(http.StatusOK))
			Expect(second.call(http.MethodGet, "/api/users/me", nil).Status).To(Equal(http.StatusOK))
		})
	})

	Describe("profile", func() {
		It("updates login, email and password", func() {
			b := newBrowser()
			Expect(b.signup("shark", "shark@example.com", "fin").Status).To(Equal(http.StatusOK))

			r := b.call(http.MethodPost, "/api/users/me", map[string]string{"login": "megalodon", "email": "m@example.com", "password": "teeth"})
			Expect(r.Status).To(Equal(http.StatusOK))
			var p account.Profile
			r.Into(&p)
			Expect(p.Login).To(Equal("megalodon"))

			Expect(newBrowser().signin("shark", "fin").Status).To(Equal(http.StatusForbidden))
			Expect(newBrowser().signin("megalodon", "teeth").Status).To(Equal(http.StatusOK))
		})

		It("requires a session", func() {
			r := newBrowser().call(http.MethodGet, "/api/users/me", nil)
			Expect(r.Status).To(Equal(http.StatusForbidden))
			Expect(r.ErrorCode()).To(Equal(account.CodeUnauthenticated))
		})
	})

	Describe("score", func() {
		It("returns the caller's score with a leaderboard page", func() {
			ctx := context.Background()
			for i, login := range []string{"a", "b", "c"} {
				id, err := suite.service.AddUser(ctx, login, login+"@example.com", "pw")
				Expect(err).NotTo(HaveOccurred())
				Expect(suite.service.SetScore(ctx, id, (i+1)*100)).To(Succeed())
			}

			b := newBrowser()
			Expect(b.signup("me", "me@example.com", "pw").Status).To(Equal(http.StatusOK))
			Expect(b.call(http.MethodPost, "/api/users/score", map[string]int{"score": 150}).Status).To(Equal(http.StatusOK))

			r := b.call(http.MethodGet, "/api/users/score?offset=0&limit=3", nil)
			Expect(r.Status).To(Equal(http.StatusOK))
			var board account.ScoreBoard
			r.Into(&board)
			Expect(board.Login).To(Equal("me"))
			Expect(board.Score).To(Equal(150))
			Expect(board.Entries).To(Equal([]account.ScoreEntry{
				{Login: "c", Score: 300},
				{Login: "b", Score: 200},
				{Login: "me", Score: 150},
			}))
		})
	})
})
