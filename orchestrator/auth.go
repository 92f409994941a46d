// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// jwtAuthMiddleware protects the analysis endpoint with HS256 bearer
// tokens. With an empty secret the middleware passes everything through,
// which keeps local development and open deployments credential-free.
func jwtAuthMiddleware(secret []byte, next http.Handler) http.Handler {
	if len(secret) == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			sendErrorResponse(w, "Missing authorization token", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			sendErrorResponse(w, "Invalid authorization token", http.StatusUnauthorized)
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if subject := getClaimString(claims, "sub"); subject != "" {
				svcLogger.Debug("", "Authenticated request", map[string]interface{}{
					"subject": subject,
				})
			}
		}

		next.ServeHTTP(w, r)
	})
}

func getClaimString(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}
