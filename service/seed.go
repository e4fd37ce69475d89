/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/hypermodeinc/usergraph/store"
)

var (
	seedFirstNames = []string{"Ada", "Alan", "Grace", "Edsger", "Barbara", "Donald", "Frances", "Ken"}
	seedLastNames  = []string{"Lovelace", "Turing", "Hopper", "Dijkstra", "Liskov", "Knuth", "Allen", "Thompson"}
	seedCountries  = []string{"Belarus", "Georgia", "Kazakhstan", "Poland", "Ukraine", "Uzbekistan"}
	seedCities     = []string{"Minsk", "Tbilisi", "Almaty", "Warsaw", "Kyiv", "Tashkent"}
	seedStreets    = []string{"Main St", "Park Ave", "Oak Rd", "Lake Dr", "Hill Ln"}
	seedWords      = []string{"graph", "batch", "loader", "depth", "query", "store", "cascade", "profile"}
)

// Seed fills the store with users fake users, each with postsPerUser posts and
// a profile of a randomly chosen member type. It is meant for development and
// runs as one transaction. It returns the number of users created.
func (s *Service) Seed(ctx context.Context, users, postsPerUser int, rnd *rand.Rand) (int, error) {
	if users <= 0 {
		return 0, nil
	}

	created := 0
	err := s.store.Update(func(txn *store.Txn) error {
		for i := 0; i < users; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			first := pick(rnd, seedFirstNames)
			last := pick(rnd, seedLastNames)
			u, err := txn.Users().Create(store.User{
				FirstName:           first,
				LastName:            last,
				Email:               fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
				SubscribedToUserIDs: []string{},
			})
			if err != nil {
				return err
			}

			for j := 0; j < postsPerUser; j++ {
				if _, err := txn.Posts().Create(store.Post{
					Title:   sentence(rnd, 4),
					Content: sentence(rnd, 20),
					UserID:  u.ID,
				}); err != nil {
					return err
				}
			}

			memberType := store.DefaultMemberTypes[rnd.Intn(len(store.DefaultMemberTypes))].ID
			birthday := time.Date(1950+rnd.Intn(50), time.Month(1+rnd.Intn(12)), 1+rnd.Intn(28),
				0, 0, 0, 0, time.UTC)
			if _, err := txn.Profiles().Create(store.Profile{
				Avatar:       fmt.Sprintf("https://avatars.example.com/%d.png", rnd.Intn(1000)),
				Sex:          pick(rnd, []string{"male", "female"}),
				Birthday:     float64(birthday.UnixMilli()),
				Country:      pick(rnd, seedCountries),
				Street:       pick(rnd, seedStreets),
				City:         pick(rnd, seedCities),
				MemberTypeID: memberType,
				UserID:       u.ID,
			}); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	glog.Infof("Seeded %d users with %d posts each", created, postsPerUser)
	return created, nil
}

func pick(rnd *rand.Rand, from []string) string {
	return from[rnd.Intn(len(from))]
}

func sentence(rnd *rand.Rand, words int) string {
	out := make([]string, words)
	for i := range out {
		out[i] = pick(rnd, seedWords)
	}
	s := strings.Join(out, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
