package entity

import "github.com/google/uuid"

// UserProfile описывает потребности пользователя; уходит в бэкенд вместе с моделью страницы.
type UserProfile struct {
	AuraID     string   `json:"aura_id"`
	Cognitive  []string `json:"cognitive,omitempty"`
	Motor      []string `json:"motor,omitempty"`
	Sensory    []string `json:"sensory,omitempty"`
	Modalities []string `json:"modalities,omitempty"`
}

func NewGuestProfile() UserProfile {
	return UserProfile{AuraID: "guest-" + uuid.NewString()}
}
