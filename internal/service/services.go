package service

import (
	"EduForge/internal/service/answers"
	"EduForge/internal/service/auth"
	"EduForge/internal/service/authoring"
	"EduForge/internal/service/classes"
	"EduForge/internal/service/search"
	"EduForge/internal/service/study"
	"EduForge/internal/service/suggest"
	"EduForge/internal/service/tree"
)

type Collection struct {
	*auth.AuthService
	*classes.ClassService
	*tree.TreeService
	*authoring.AuthoringService
	*answers.AnswerService
	*suggest.SuggestService
	*study.StudyService
	*search.SearchService

	// Features reports optional backends for the status endpoint.
	Features Features
}

type Features struct {
	Storage    string `json:"storage"`
	Media      bool   `json:"media"`
	Search     bool   `json:"search"`
	Cache      bool   `json:"cache"`
	AIProvider string `json:"ai_provider"`
}
