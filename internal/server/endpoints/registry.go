package endpoints

import (
	"github.com/RafaArmero1993/MentorIA/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	all := []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},
	}
	all = append(all, DocumentCommands()...)
	all = append(all, ExerciseCommands()...)
	all = append(all, WorkCommands()...)
	all = append(all, AudioCommands()...)
	all = append(all, LLMCallCommands()...)
	return all
}

// DocumentCommands returns endpoints for content documents.
// This groups document commands under "documents" subcommand.
func DocumentCommands() []api.Endpoint {
	return []api.Endpoint{
		&GenerateDocumentEndpoint{},
		&PlanDocumentEndpoint{},
		&ListDocumentsEndpoint{},
		&GetDocumentEndpoint{},
	}
}

// ExerciseCommands returns endpoints for exercise sheets.
// This groups exercise commands under "exercises" subcommand.
func ExerciseCommands() []api.Endpoint {
	return []api.Endpoint{
		&GenerateExercisesEndpoint{},
		&GetExercisesEndpoint{},
	}
}

// WorkCommands returns endpoints for monograph assignments.
// This groups monograph commands under "works" subcommand.
func WorkCommands() []api.Endpoint {
	return []api.Endpoint{
		&GenerateWorkEndpoint{},
		&GetWorkEndpoint{},
	}
}

// AudioCommands returns endpoints for narrations.
func AudioCommands() []api.Endpoint {
	return []api.Endpoint{
		&GetAudioEndpoint{},
	}
}

// LLMCallCommands returns endpoints for LLM call history operations.
// This groups llmcall-related commands under "llmcalls" subcommand.
func LLMCallCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListLLMCallsEndpoint{},
		&GetLLMCallEndpoint{},
		&LLMCallCountsEndpoint{},
	}
}
