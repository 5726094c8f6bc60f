// controllers/srv.go
package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/lending"
	"Gin_postgres_redis_library/models"
	"Gin_postgres_redis_library/notify"
	"Gin_postgres_redis_library/session"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Srv struct {
	WA      *webauthn.WebAuthn
	Repo    *db.Repo
	Lending *lending.Service
	Notify  *notify.Sink
	Sess    *session.Store
	AppSess *session.AppSessionStore
	Cfg     config.Config
	Log     *zap.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		WA:      a.WA,
		Repo:    a.Repo,
		Lending: a.Lending,
		Notify:  a.Notify,
		Sess:    session.NewStore(a.RDB, a.Config.SessionTTL),
		AppSess: a.AppSessions(),
		Cfg:     a.Config,
		Log:     a.Log,
	}
}

// --- helpers ---

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		app.BadRequest(c, err.Error())
		return false
	}
	return true
}

func pageOf(c *gin.Context) db.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	return db.Page{Page: page, Size: size}
}

func forbidden(c *gin.Context) {
	app.Abort(c, http.StatusForbidden, "FORBIDDEN", "not allowed for this customer")
}

// 统一设置业务会话 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.Cfg.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// 登录成功：创建会话 + 触发登录快照
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, acc *models.Account, ip, ua string) error {
	if err := s.Repo.TouchAccountLogin(ctx, acc.ID, ip, ua); err != nil {
		s.Log.Warn("touch login failed", zap.String("account_id", acc.ID), zap.Error(err))
	}
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, acc); err != nil {
		return err
	}
	s.setAppCookie(w, id, s.AppSess.TTL())
	return nil
}

// WebAuthn: DB account -> waUser
type waUser struct {
	acc   models.Account
	creds []webauthn.Credential
}

func (u *waUser) WebAuthnID() []byte                         { id, _ := uuid.Parse(u.acc.ID); return id[:] }
func (u *waUser) WebAuthnName() string                       { return u.acc.Username }
func (u *waUser) WebAuthnDisplayName() string                { return u.acc.DisplayName }
func (u *waUser) WebAuthnIcon() string                       { return "" }
func (u *waUser) WebAuthnCredentials() []webauthn.Credential { return u.creds }

func toWaCred(c models.Credential) webauthn.Credential {
	return webauthn.Credential{
		ID:              c.CredentialID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Authenticator: webauthn.Authenticator{
			AAGUID:       c.AAGUID,
			SignCount:    c.SignCount,
			CloneWarning: c.CloneWarning,
		},
		Flags: webauthn.CredentialFlags{
			BackupEligible: c.BackupEligible,
			BackupState:    c.BackupState,
		},
	}
}

func (s *Srv) waUserFor(ctx context.Context, acc *models.Account) *waUser {
	cs, _ := s.Repo.LoadAccountCredentials(ctx, acc.ID)
	ws := make([]webauthn.Credential, 0, len(cs))
	for _, c := range cs {
		ws = append(ws, toWaCred(c))
	}
	return &waUser{acc: *acc, creds: ws}
}

func (s *Srv) loadWAUserByID(ctx context.Context, id string) (*waUser, error) {
	acc, err := s.Repo.FindAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.waUserFor(ctx, acc), nil
}

func (s *Srv) loadWAUserByUsername(ctx context.Context, username string) (*waUser, error) {
	acc, err := s.Repo.FindAccountByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.waUserFor(ctx, acc), nil
}
