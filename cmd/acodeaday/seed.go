package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/acodeaday/acodeaday/store"
	"github.com/acodeaday/acodeaday/store/db"
)

// problemFile is the on-disk JSON definition of one problem.
type problemFile struct {
	Title          string                     `json:"title"`
	Slug           string                     `json:"slug"`
	SequenceNumber int32                      `json:"sequence_number"`
	Difficulty     string                     `json:"difficulty"`
	Pattern        string                     `json:"pattern"`
	Description    string                     `json:"description"`
	Constraints    []string                   `json:"constraints"`
	Examples       json.RawMessage            `json:"examples"`
	Languages      map[string]problemLangFile `json:"languages"`
	TestCases      []problemTestCaseFile      `json:"test_cases"`
}

type problemLangFile struct {
	StarterCode       string          `json:"starter_code"`
	ReferenceSolution string          `json:"reference_solution"`
	FunctionSignature json.RawMessage `json:"function_signature"`
}

type problemTestCaseFile struct {
	Input    json.RawMessage `json:"input"`
	Expected json.RawMessage `json:"expected"`
	IsHidden bool            `json:"is_hidden"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load problem definition files into the database",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return errors.Wrap(err, "failed to load profile")
		}

		ctx := context.Background()
		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return errors.Wrap(err, "failed to create db driver")
		}
		storeInstance := store.New(dbDriver, instanceProfile)
		defer storeInstance.Close()
		if err := storeInstance.Migrate(ctx); err != nil {
			return errors.Wrap(err, "failed to migrate db")
		}

		dir := viper.GetString("seed-dir")
		force := viper.GetBool("seed-force")
		return seedProblems(ctx, storeInstance, dir, force)
	},
}

func init() {
	seedCmd.Flags().String("dir", "problems", "directory containing problem JSON files")
	seedCmd.Flags().Bool("force", false, "replace problems whose slug already exists")
	if err := viper.BindPFlag("seed-dir", seedCmd.Flags().Lookup("dir")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("seed-force", seedCmd.Flags().Lookup("force")); err != nil {
		panic(err)
	}
}

// seedProblems loads every *.json file in dir and upserts it into the store.
// Existing slugs are skipped unless force is set.
func seedProblems(ctx context.Context, s *store.Store, dir string, force bool) error {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return errors.Wrap(err, "failed to list problem files")
	}
	if len(entries) == 0 {
		return errors.Errorf("no problem files found in %s", dir)
	}

	var created, skipped, replaced int
	for _, path := range entries {
		data, err := loadProblemFile(path)
		if err != nil {
			return errors.Wrapf(err, "invalid problem file %s", path)
		}

		slug := data.Slug
		if slug == "" {
			slug = titleToSlug(data.Title)
		}

		existing, err := s.GetProblem(ctx, &store.FindProblem{Slug: &slug})
		if err != nil {
			return err
		}
		if existing != nil {
			if !force {
				skipped++
				continue
			}
			if err := s.DeleteProblem(ctx, &store.DeleteProblem{ID: existing.ID}); err != nil {
				return errors.Wrapf(err, "failed to replace problem %s", slug)
			}
			replaced++
		}

		if err := insertProblem(ctx, s, slug, data); err != nil {
			return errors.Wrapf(err, "failed to insert problem %s", slug)
		}
		if existing == nil {
			created++
		}
	}

	fmt.Printf("seeded %d problems (%d new, %d replaced, %d skipped)\n",
		created+replaced, created, replaced, skipped)
	return nil
}

func loadProblemFile(path string) (*problemFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data problemFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, validateProblemFile(&data)
}

func validateProblemFile(data *problemFile) error {
	if data.Title == "" {
		return errors.New("missing title")
	}
	if data.SequenceNumber <= 0 {
		return errors.New("missing or invalid sequence_number")
	}
	if !store.Difficulty(data.Difficulty).IsValid() {
		return errors.Errorf("invalid difficulty: %s", data.Difficulty)
	}
	if data.Pattern == "" {
		return errors.New("missing pattern")
	}
	if data.Description == "" {
		return errors.New("missing description")
	}
	if len(data.Languages) == 0 {
		return errors.New("at least one language is required")
	}
	for lang, langData := range data.Languages {
		if !store.Language(lang).IsValid() {
			return errors.Errorf("invalid language: %s", lang)
		}
		if langData.StarterCode == "" || len(langData.FunctionSignature) == 0 {
			return errors.Errorf("language %s needs starter_code and function_signature", lang)
		}
	}
	if len(data.TestCases) == 0 {
		return errors.New("at least one test case is required")
	}
	return nil
}

func insertProblem(ctx context.Context, s *store.Store, slug string, data *problemFile) error {
	examples := string(data.Examples)
	if examples != "" && !strings.HasPrefix(strings.TrimSpace(examples), "{") {
		examples = fmt.Sprintf(`{"examples": %s}`, examples)
	}

	problem, err := s.CreateProblem(ctx, &store.Problem{
		ID:             uuid.NewString(),
		Title:          data.Title,
		Slug:           slug,
		Description:    data.Description,
		Difficulty:     store.Difficulty(data.Difficulty),
		Pattern:        data.Pattern,
		SequenceNumber: data.SequenceNumber,
		Constraints:    data.Constraints,
		Examples:       examples,
	})
	if err != nil {
		return err
	}

	for lang, langData := range data.Languages {
		if _, err := s.CreateProblemLanguage(ctx, &store.ProblemLanguage{
			ID:                uuid.NewString(),
			ProblemID:         problem.ID,
			Language:          store.Language(lang),
			StarterCode:       langData.StarterCode,
			ReferenceSolution: langData.ReferenceSolution,
			FunctionSignature: string(langData.FunctionSignature),
		}); err != nil {
			return err
		}
	}

	for i, tc := range data.TestCases {
		if _, err := s.CreateTestCase(ctx, &store.TestCase{
			ID:        uuid.NewString(),
			ProblemID: problem.ID,
			Input:     string(tc.Input),
			Expected:  string(tc.Expected),
			IsHidden:  tc.IsHidden,
			Sequence:  int32(i + 1),
		}); err != nil {
			return err
		}
	}
	return nil
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace   = regexp.MustCompile(`\s+`)
	slugDashRuns     = regexp.MustCompile(`-+`)
)

// titleToSlug converts a problem title to a URL-friendly slug.
func titleToSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
