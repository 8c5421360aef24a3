package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/classifieds-api/internal/constants"
	"github.com/yukikurage/classifieds-api/internal/database"
	"github.com/yukikurage/classifieds-api/internal/dto"
	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/ratelimit"
	"github.com/yukikurage/classifieds-api/internal/repository"
	"github.com/yukikurage/classifieds-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type organizationTestEnv struct {
	db         *gorm.DB
	handler    *OrganizationHandler
	orgService *services.OrganizationService
}

func setupOrganizationTestEnv(t *testing.T) organizationTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	err = db.AutoMigrate(database.Models()...)
	require.NoError(t, err)

	database.SetDB(db)

	orgRepo := repository.NewOrganizationRepository(db)
	limiter := ratelimit.NewGormLimiter(db, ratelimit.Rules{
		ratelimit.ActionOrganizationCreation: {Max: 2, Window: time.Minute},
	})
	orgService := services.NewOrganizationService(orgRepo, repository.NewSponsorshipRepository(db), repository.NewCreditRepository(db), limiter)
	handler := NewOrganizationHandler(orgService)

	return organizationTestEnv{
		db:         db,
		handler:    handler,
		orgService: orgService,
	}
}

func orgTestContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

func createTestOrganizationUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username:     username,
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestOrganizationHandler_CreateOrganization(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	user := createTestOrganizationUser(t, env.db, "owner")

	payload := map[string]string{"name": "New Org"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := orgTestContext(http.MethodPost, "/api/organizations", body, user.ID)

	env.handler.CreateOrganization(c)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.OrganizationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, payload["name"], response.Name)
	require.NotEmpty(t, response.InviteCode)
}

func TestOrganizationHandler_ListOrganizations(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	user := createTestOrganizationUser(t, env.db, "member")

	org, err := env.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    "Org One",
		OwnerID: user.ID,
	})
	require.NoError(t, err)
	require.NoError(t, repository.NewCreditRepository(env.db).Grant(models.OrganizationPurchaser(org.ID), 4))

	c, w := orgTestContext(http.MethodGet, "/api/organizations", nil, user.ID)

	env.handler.ListOrganizations(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]dto.OrganizationWithRoleDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	orgs := response["organizations"]
	require.Len(t, orgs, 1)
	require.Equal(t, "Org One", orgs[0].OrganizationDTO.Name)
	require.Equal(t, models.RoleOwner, orgs[0].Role)
	require.NotNil(t, orgs[0].UnspentCredits)
	require.EqualValues(t, 4, *orgs[0].UnspentCredits)
}

func TestOrganizationHandler_GetOrganization_LiveSponsorships(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	owner := createTestOrganizationUser(t, env.db, "owner")
	org, err := env.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    "Sponsor",
		OwnerID: owner.ID,
	})
	require.NoError(t, err)

	live := time.Now().Add(24 * time.Hour)
	expired := time.Now().Add(-24 * time.Hour)
	for level, expiresAt := range map[models.SponsorshipLevel]time.Time{
		models.SponsorshipBronze: live,
		models.SponsorshipDevrel: expired,
	} {
		expiresAt := expiresAt
		require.NoError(t, env.db.Omit("Organization").Create(&models.Sponsorship{
			OrganizationID: org.ID,
			UserID:         owner.ID,
			Level:          level,
			Status:         models.SponsorshipStatusLive,
			ExpiresAt:      &expiresAt,
		}).Error)
	}

	member, err := repository.NewOrganizationRepository(env.db).FindMember(org.ID, owner.ID)
	require.NoError(t, err)

	c, w := orgTestContext(http.MethodGet, "/api/organizations/1", nil, owner.ID)
	c.Set(constants.ContextKeyOrganization, *org)
	c.Set(constants.ContextKeyMember, *member)
	env.handler.GetOrganization(c)

	require.Equal(t, http.StatusOK, w.Code)
	var response dto.OrganizationDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, models.RoleOwner, response.YourRole)
	require.Len(t, response.Members, 1)
	require.True(t, response.Members[0].CanManage)
	require.Len(t, response.Sponsorships, 1)
	require.Equal(t, models.SponsorshipBronze, response.Sponsorships[0].Level)
}

func TestOrganizationHandler_JoinOrganization_InvalidCode(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	user := createTestOrganizationUser(t, env.db, "user")

	payload := map[string]string{"invite_code": "UNKNOWN"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := orgTestContext(http.MethodPost, "/api/organizations/join", body, user.ID)

	env.handler.JoinOrganization(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrganizationHandler_CreateOrganization_RateLimited(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	user := createTestOrganizationUser(t, env.db, "busy")

	for i, name := range []string{"One", "Two"} {
		body, err := json.Marshal(map[string]string{"name": name})
		require.NoError(t, err)
		c, w := orgTestContext(http.MethodPost, "/api/organizations", body, user.ID)
		env.handler.CreateOrganization(c)
		require.Equal(t, http.StatusCreated, w.Code, "organization %d", i)
	}

	body, err := json.Marshal(map[string]string{"name": "Three"})
	require.NoError(t, err)
	c, w := orgTestContext(http.MethodPost, "/api/organizations", body, user.ID)
	env.handler.CreateOrganization(c)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Organization{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestOrganizationHandler_RemoveMember(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	owner := createTestOrganizationUser(t, env.db, "owner")
	member := createTestOrganizationUser(t, env.db, "member")

	org, err := env.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    "Team",
		OwnerID: owner.ID,
	})
	require.NoError(t, err)
	_, err = env.orgService.JoinOrganizationByInvite(member.ID, org.InviteCode)
	require.NoError(t, err)

	c, w := orgTestContext(http.MethodDelete, "/api/organizations/1/members/2", nil, owner.ID)
	c.Params = gin.Params{{Key: "id", Value: "1"}, {Key: "user_id", Value: strconv.FormatUint(member.ID, 10)}}
	c.Set(constants.ContextKeyOrganization, *org)

	env.handler.RemoveMember(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = orgTestContext(http.MethodDelete, "/api/organizations/1/members/1", nil, owner.ID)
	c.Params = gin.Params{{Key: "id", Value: "1"}, {Key: "user_id", Value: strconv.FormatUint(owner.ID, 10)}}
	c.Set(constants.ContextKeyOrganization, *org)

	env.handler.RemoveMember(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganizationHandler_JoinOrganization_CaseInsensitiveCode(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	owner := createTestOrganizationUser(t, env.db, "owner")
	member := createTestOrganizationUser(t, env.db, "member")

	org, err := env.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    "Team",
		OwnerID: owner.ID,
	})
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"invite_code": " " + strings.ToLower(org.InviteCode) + " "})
	require.NoError(t, err)
	c, w := orgTestContext(http.MethodPost, "/api/organizations/join", body, member.ID)

	env.handler.JoinOrganization(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = orgTestContext(http.MethodPost, "/api/organizations/join", body, member.ID)
	env.handler.JoinOrganization(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestOrganizationHandler_UpdateMemberRole(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	owner := createTestOrganizationUser(t, env.db, "owner")
	member := createTestOrganizationUser(t, env.db, "member")

	org, err := env.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    "Team",
		OwnerID: owner.ID,
	})
	require.NoError(t, err)
	_, err = env.orgService.JoinOrganizationByInvite(member.ID, org.InviteCode)
	require.NoError(t, err)

	roleContext := func(targetID uint64, role string) (*gin.Context, *httptest.ResponseRecorder) {
		body, err := json.Marshal(map[string]string{"role": role})
		require.NoError(t, err)
		c, w := orgTestContext(http.MethodPut, "/api/organizations/1/members/2", body, owner.ID)
		c.Params = gin.Params{{Key: "id", Value: "1"}, {Key: "user_id", Value: strconv.FormatUint(targetID, 10)}}
		c.Set(constants.ContextKeyOrganization, *org)
		return c, w
	}

	c, w := roleContext(member.ID, "admin")
	env.handler.UpdateMemberRole(c)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := repository.NewOrganizationRepository(env.db).FindMember(org.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, stored.Role)

	c, w = roleContext(member.ID, "superuser")
	env.handler.UpdateMemberRole(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	c, w = roleContext(owner.ID, "member")
	env.handler.UpdateMemberRole(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganizationHandler_DeleteOrganization_LiveSponsorship(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	owner := createTestOrganizationUser(t, env.db, "owner")
	org, err := env.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    "Sponsor",
		OwnerID: owner.ID,
	})
	require.NoError(t, err)

	expiresAt := time.Now().Add(24 * time.Hour)
	sponsorship := &models.Sponsorship{
		OrganizationID: org.ID,
		UserID:         owner.ID,
		Level:          models.SponsorshipBronze,
		Status:         models.SponsorshipStatusLive,
		ExpiresAt:      &expiresAt,
	}
	require.NoError(t, env.db.Omit("Organization").Create(sponsorship).Error)

	deleteContext := func() (*gin.Context, *httptest.ResponseRecorder) {
		c, w := orgTestContext(http.MethodDelete, "/api/organizations/1", nil, owner.ID)
		c.Set(constants.ContextKeyOrganization, *org)
		return c, w
	}

	c, w := deleteContext()
	env.handler.DeleteOrganization(c)
	require.Equal(t, http.StatusConflict, w.Code)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, env.db.Model(sponsorship).Update("expires_at", expired).Error)

	c, w = deleteContext()
	env.handler.DeleteOrganization(c)
	require.Equal(t, http.StatusOK, w.Code)

	var members int64
	require.NoError(t, env.db.Model(&models.OrganizationMember{}).Where("organization_id = ?", org.ID).Count(&members).Error)
	require.Zero(t, members)
}
