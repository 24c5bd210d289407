package api

import (
	"net/http"

	"github.com/cankoe/survey-runner/internal/models"
	"github.com/cankoe/survey-runner/internal/store"

	"github.com/gin-gonic/gin"
)

func listAccountsHandler(accounts store.AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.Query("tenant_id")
		if tenantID == "" {
			respondError(c, "GET /api/accounts", &ApiError{
				Code:    ErrCodeInvalidRequest,
				Message: "tenant_id query parameter is required",
			})
			return
		}

		list, err := accounts.ListAccounts(c.Request.Context(), tenantID)
		if err != nil {
			respondError(c, "GET /api/accounts", &ApiError{Code: ErrCodeDatabaseError, Message: "Failed to list accounts"})
			return
		}

		// Credentials never leave the service.
		out := make([]models.Account, 0, len(list))
		for _, a := range list {
			a.CredentialEncrypted = ""
			out = append(out, a)
		}
		c.JSON(http.StatusOK, gin.H{"accounts": out})
	}
}

func createAccountHandler(accounts store.AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var account models.Account
		if err := c.ShouldBindJSON(&account); err != nil {
			respondError(c, "POST /api/accounts", &ApiError{
				Code:    ErrCodeInvalidRequest,
				Message: "Invalid request body. Ensure the JSON structure matches the required format.",
			})
			return
		}
		if err := validateAccount(&account); err != nil {
			respondError(c, "POST /api/accounts", err)
			return
		}

		account.ID = ""
		account.Status = models.AccountStatusActive
		account.LastRunAt = nil

		id, err := accounts.CreateAccount(c.Request.Context(), &account)
		if err != nil {
			respondError(c, "POST /api/accounts", &ApiError{Code: ErrCodeDatabaseError, Message: "Failed to create account"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

func validateAccount(a *models.Account) error {
	switch {
	case a.TenantID == "":
		return &ApiError{Code: ErrCodeValidationFailed, Message: "tenant_id cannot be empty"}
	case a.Site == "":
		return &ApiError{Code: ErrCodeValidationFailed, Message: "site cannot be empty"}
	case a.Username == "":
		return &ApiError{Code: ErrCodeValidationFailed, Message: "username cannot be empty"}
	}
	return nil
}
