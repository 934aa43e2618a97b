package main

import (
	"github.com/spf13/cobra"

	"github.com/RafaArmero1993/MentorIA/internal/api"
	"github.com/RafaArmero1993/MentorIA/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running MentorIA server via HTTP.

These commands require a running server (mentoria serve).
Use --server to specify a custom server URL.

Examples:
  mentoria api health                                  # Check server health
  mentoria api documents list                          # List generated documents
  mentoria api documents generate --outline tema.yaml --subject Biología --level "1º ESO"
  mentoria api documents get 123456 --out tema.html    # Download a document`,
}

var documentsGroup = &cobra.Command{
	Use:   "documents",
	Short: "Content document commands",
}

var exercisesGroup = &cobra.Command{
	Use:   "exercises",
	Short: "Exercise sheet commands",
}

var worksGroup = &cobra.Command{
	Use:   "works",
	Short: "Monograph assignment commands",
}

var audiosGroup = &cobra.Command{
	Use:   "audios",
	Short: "Narration commands",
}

var llmcallsGroup = &cobra.Command{
	Use:   "llmcalls",
	Short: "LLM call history commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func addGroup(group *cobra.Command, eps []api.Endpoint) {
	for _, ep := range eps {
		group.AddCommand(ep.Command(getServerURL))
	}
	apiCmd.AddCommand(group)
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	addGroup(documentsGroup, endpoints.DocumentCommands())
	addGroup(exercisesGroup, endpoints.ExerciseCommands())
	addGroup(worksGroup, endpoints.WorkCommands())
	addGroup(audiosGroup, endpoints.AudioCommands())
	addGroup(llmcallsGroup, endpoints.LLMCallCommands())

	rootCmd.AddCommand(apiCmd)
}
