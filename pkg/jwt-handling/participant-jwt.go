package jwthandling

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Information a participant token encodes
type ParticipantClaims struct {
	InstanceID       string   `json:"instance_id,omitempty"`
	StudyKey         string   `json:"study_key,omitempty"`
	HealthCode       string   `json:"health_code,omitempty"`
	UserGroups       []string `json:"user_groups,omitempty"`
	AccountCreatedAt int64    `json:"account_created_at,omitempty"`
	jwt.RegisteredClaims
}

func GenerateNewParticipantToken(
	expiresIn time.Duration,
	id string,
	instanceID string,
	studyKey string,
	healthCode string,
	userGroups []string,
	accountCreatedAt int64,
	secretKey string,
) (tokenString string, err error) {
	claims := ParticipantClaims{
		instanceID,
		studyKey,
		healthCode,
		userGroups,
		accountCreatedAt,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   id,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString([]byte(secretKey))
	return
}

func ValidateParticipantToken(tokenString string, secretKey string) (claims *ParticipantClaims, valid bool, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &ParticipantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if token == nil {
		return
	}
	claims, valid = token.Claims.(*ParticipantClaims)
	valid = valid && token.Valid
	return
}
