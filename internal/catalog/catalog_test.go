package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/KirkDiggler/dnd-narrator/internal/catalog"
	"github.com/KirkDiggler/dnd-narrator/internal/clients/dnd5e"
	mockdnd5e "github.com/KirkDiggler/dnd-narrator/internal/clients/dnd5e/mock"
	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CatalogTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	source  *mockdnd5e.MockClient
	catalog catalog.Catalog
	ctx     context.Context
}

func (s *CatalogTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.source = mockdnd5e.NewMockClient(s.ctrl)
	s.source.EXPECT().ListCategories(gomock.Any()).Return(map[string]string{
		dnd5e.CategorySkills:        "skills",
		dnd5e.CategoryAbilityScores: "abilities",
		dnd5e.CategoryClasses:       "classes",
	}).Times(1)

	s.catalog = catalog.New(s.ctx, &catalog.Config{
		Source: s.source,
		Local: []*catalog.LocalCategory{{
			Name:        "difficulty-classes",
			Description: "DC tiers",
			Entries:     []*entities.ReferenceEntry{{Key: "hard", Value: 20}},
		}},
	})
}

func (s *CatalogTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestCatalogTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogTestSuite))
}

func testSkills() []*entities.ReferenceEntry {
	return []*entities.ReferenceEntry{
		{Category: dnd5e.CategorySkills, Key: "athletics", Ability: entities.AbilityStrength},
		{Category: dnd5e.CategorySkills, Key: "sleight_of_hand", Ability: entities.AbilityDexterity},
		{Category: dnd5e.CategorySkills, Key: "stealth", Ability: entities.AbilityDexterity},
		{Category: dnd5e.CategorySkills, Key: "perception", Ability: entities.AbilityWisdom},
	}
}

func (s *CatalogTestSuite) TestCategories() {
	categories := s.catalog.Categories()
	s.Len(categories, 4)
	s.Equal("DC tiers", categories["difficulty-classes"])

	// callers get a copy
	delete(categories, dnd5e.CategorySkills)
	s.Contains(s.catalog.Categories(), dnd5e.CategorySkills)
}

func (s *CatalogTestSuite) TestValidateCategories() {
	valid, dropped := s.catalog.ValidateCategories([]string{"Skills", "skills", "monsters", " classes "})

	s.Equal([]string{"skills", "classes"}, valid)
	s.Equal([]string{"monsters"}, dropped)

	valid, dropped = s.catalog.ValidateCategories(nil)
	s.Empty(valid)
	s.Empty(dropped)
}

func (s *CatalogTestSuite) TestFetch_LoadsOnceThenCaches() {
	s.source.EXPECT().FetchCategory(gomock.Any(), dnd5e.CategorySkills).Return(testSkills(), nil).Times(1)

	first, err := s.catalog.Fetch(s.ctx, []string{dnd5e.CategorySkills, "difficulty-classes"})
	s.Require().NoError(err)
	s.Len(first[dnd5e.CategorySkills], 4)
	s.Len(first["difficulty-classes"], 1)

	second, err := s.catalog.Fetch(s.ctx, []string{dnd5e.CategorySkills})
	s.Require().NoError(err)
	s.Equal(first[dnd5e.CategorySkills], second[dnd5e.CategorySkills])
}

func (s *CatalogTestSuite) TestFetch_ConcurrentReaders() {
	s.source.EXPECT().FetchCategory(gomock.Any(), dnd5e.CategoryClasses).
		Return([]*entities.ReferenceEntry{{Key: "wizard"}}, nil).MinTimes(1)

	var wg sync.WaitGroup
	results := make([]map[string][]*entities.ReferenceEntry, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.catalog.Fetch(s.ctx, []string{dnd5e.CategoryClasses})
			s.NoError(err)
			results[i] = got
		}()
	}
	wg.Wait()

	for _, r := range results {
		s.Equal("wizard", r[dnd5e.CategoryClasses][0].Key)
	}
}

func (s *CatalogTestSuite) TestFetch_Errors() {
	_, err := s.catalog.Fetch(s.ctx, []string{"monsters"})
	s.True(dnderr.IsNotFound(err))

	s.source.EXPECT().FetchCategory(gomock.Any(), dnd5e.CategoryClasses).Return(nil, errors.New("api down"))
	_, err = s.catalog.Fetch(s.ctx, []string{dnd5e.CategoryClasses})
	s.Error(err)
	s.Equal("classes", dnderr.GetMeta(err)["category"])
}

func (s *CatalogTestSuite) TestRefresh_SwapsSnapshot() {
	s.source.EXPECT().FetchCategory(gomock.Any(), dnd5e.CategoryClasses).
		Return([]*entities.ReferenceEntry{{Key: "wizard"}}, nil).Times(1)
	_, err := s.catalog.Fetch(s.ctx, []string{dnd5e.CategoryClasses})
	s.Require().NoError(err)

	s.source.EXPECT().ListCategories(gomock.Any()).Return(map[string]string{
		dnd5e.CategorySkills:  "skills",
		dnd5e.CategoryClasses: "classes",
	})
	s.source.EXPECT().FetchCategory(gomock.Any(), dnd5e.CategorySkills).Return(testSkills(), nil)
	s.source.EXPECT().FetchCategory(gomock.Any(), dnd5e.CategoryClasses).
		Return([]*entities.ReferenceEntry{{Key: "bard"}}, nil)

	s.Require().NoError(s.catalog.Refresh(s.ctx))

	got, err := s.catalog.Fetch(s.ctx, []string{dnd5e.CategoryClasses, "difficulty-classes"})
	s.Require().NoError(err)
	s.Equal("bard", got[dnd5e.CategoryClasses][0].Key)
	s.Len(got["difficulty-classes"], 1)
	s.NotContains(s.catalog.Categories(), dnd5e.CategoryAbilityScores)
}

func (s *CatalogTestSuite) TestRefresh_FailureKeepsSnapshot() {
	s.source.EXPECT().ListCategories(gomock.Any()).Return(map[string]string{
		dnd5e.CategoryClasses: "classes",
	})
	s.source.EXPECT().FetchCategory(gomock.Any(), dnd5e.CategoryClasses).Return(nil, errors.New("api down"))

	s.Error(s.catalog.Refresh(s.ctx))
	s.Contains(s.catalog.Categories(), dnd5e.CategorySkills)
}

func (s *CatalogTestSuite) TestMatchSkill() {
	s.source.EXPECT().FetchCategory(gomock.Any(), dnd5e.CategorySkills).Return(testSkills(), nil).Times(1)

	tests := []struct {
		input string
		want  string
	}{
		{input: "athletics", want: "athletics"},
		{input: "Sleight-of-Hand", want: "sleight_of_hand"},
		{input: "skill-stealth", want: "stealth"},
		{input: "sleight", want: "sleight_of_hand"},
		{input: "keen perception", want: "perception"},
		{input: "basket weaving", want: ""},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		got, err := s.catalog.MatchSkill(s.ctx, tt.input)
		s.Require().NoError(err)
		s.Equal(tt.want, got, tt.input)
	}
}
