// Package docs provides generated OpenAPI documentation.
//
// MentorIA API
//
//	@title			MentorIA API
//	@version		1.0
//	@description	Generates paginated, illustrated and narrated study documents, exercise sheets and monograph assignments.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/RafaArmero1993/MentorIA
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/mentoria/serve.go -o ./swagger --parseDependency --parseInternal
