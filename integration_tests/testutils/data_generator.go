//go:build integration

package testutils

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
)

// TeamFixture is a generated team registration.
type TeamFixture struct {
	Code        string
	Name        string
	Institution string
	AccessCode  string
}

// TestDataGenerator produces reproducible team fixtures.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator seeds the generator so failures can be replayed.
func NewTestDataGenerator(seed uint64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// GenerateTeams returns n teams with distinct codes.
func (g *TestDataGenerator) GenerateTeams(n int) []TeamFixture {
	teams := make([]TeamFixture, n)
	for i := range teams {
		teams[i] = TeamFixture{
			Code:        fmt.Sprintf("TEAM%02d", i+1),
			Name:        g.faker.Company(),
			Institution: g.faker.City(),
			AccessCode:  g.faker.Password(true, true, true, false, false, 16),
		}
	}
	return teams
}
