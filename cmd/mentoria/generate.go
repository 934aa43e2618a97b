package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RafaArmero1993/MentorIA/internal/api"
	"github.com/RafaArmero1993/MentorIA/internal/generator"
	"github.com/RafaArmero1993/MentorIA/internal/outline"
	"github.com/RafaArmero1993/MentorIA/internal/providers"
	"github.com/RafaArmero1993/MentorIA/internal/server/endpoints"
)

var (
	outlinePath string
	subject     string
	level       string

	pdfPath    string
	degreePath string
	unit       string
	interests  string
	count      int
)

// withPipeline runs fn against a pipeline built from the local config and
// home directory, without a server.
func withPipeline(fn func(p *generator.Pipeline) error) error {
	logger := slog.Default()
	h, err := openHome()
	if err != nil {
		return err
	}
	cm, err := loadConfig(h)
	if err != nil {
		return err
	}
	cfg := cm.Get()

	env, err := generator.OpenEnv(cfg, h, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	registry := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig())
	registry.SetLogger(logger)
	p, err := generator.Build(cfg, registry, env)
	if err != nil {
		return err
	}
	return fn(p)
}

func contentRequest() (generator.ContentRequest, error) {
	o, err := outline.Load(outlinePath)
	if err != nil {
		return generator.ContentRequest{}, err
	}
	return generator.ContentRequest{Subject: subject, Level: level, Outline: o}, nil
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a content document locally",
	Long: `Generate a content document from an outline without a server.

The outline may be yaml, json or csv. CSV outlines need unit, chapter,
section and topic columns plus an optional pages column; leaves without
pages get an estimate from the LLM.

Examples:
  mentoria generate --outline tema3.csv --subject "Física y Química" --level "2º ESO"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := contentRequest()
		if err != nil {
			return err
		}
		return withPipeline(func(p *generator.Pipeline) error {
			res, err := p.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return api.Output(res)
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the page plan of an outline without drafting",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := contentRequest()
		if err != nil {
			return err
		}
		return withPipeline(func(p *generator.Pipeline) error {
			o, pages, err := p.Plan(cmd.Context(), req)
			if err != nil {
				return err
			}
			return api.Output(endpoints.NewPlanResponse(o, pages))
		})
	},
}

var exercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "Generate an exercise sheet from a PDF locally",
	Long: `Generate an exercise sheet grounded in a PDF without a server.

Each exercise gets a QR code linking to a spoken hint.

Examples:
  mentoria exercises --pdf tema3.pdf --subject Matemáticas --level "3º ESO" --unit Fracciones --count 6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(pdfPath)
		if err != nil {
			return err
		}
		req := generator.ExerciseRequest{
			Subject:   subject,
			Level:     level,
			Unit:      unit,
			Interests: interests,
			Count:     count,
			PDF:       data,
			PDFName:   filepath.Base(pdfPath),
		}
		return withPipeline(func(p *generator.Pipeline) error {
			res, err := p.Exercises(cmd.Context(), req)
			if err != nil {
				return err
			}
			return api.Output(res)
		})
	},
}

var monographCmd = &cobra.Command{
	Use:   "monograph",
	Short: "Generate a monograph assignment locally",
	Long: `Generate a month-long assignment grounded in a PDF without a server.

The assignment links the material to the student's interests and to the
degree described in a second PDF.

Examples:
  mentoria monograph --pdf tema3.pdf --degree-pdf medicina.pdf --subject Biología --level "1º Bachillerato" --unit "La célula"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(pdfPath)
		if err != nil {
			return err
		}
		degree, err := os.ReadFile(degreePath)
		if err != nil {
			return err
		}
		req := generator.WorkRequest{
			Subject:    subject,
			Level:      level,
			Unit:       unit,
			Interests:  interests,
			PDF:        data,
			PDFName:    filepath.Base(pdfPath),
			DegreePDF:  degree,
			DegreeName: filepath.Base(degreePath),
		}
		return withPipeline(func(p *generator.Pipeline) error {
			res, err := p.Monograph(cmd.Context(), req)
			if err != nil {
				return err
			}
			return api.Output(res)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, planCmd} {
		c.Flags().StringVar(&outlinePath, "outline", "", "Outline file (yaml, json or csv)")
		c.Flags().StringVar(&subject, "subject", "", "Subject name")
		c.Flags().StringVar(&level, "level", "", "Academic level")
		c.MarkFlagRequired("outline")
		c.MarkFlagRequired("subject")
		c.MarkFlagRequired("level")
		rootCmd.AddCommand(c)
	}

	endpoints.ExerciseFlags(exercisesCmd, &pdfPath, &subject, &level, &unit, &interests, &count)
	rootCmd.AddCommand(exercisesCmd)

	endpoints.WorkFlags(monographCmd, &pdfPath, &degreePath, &subject, &level, &unit, &interests)
	rootCmd.AddCommand(monographCmd)
}
