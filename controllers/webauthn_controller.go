// controllers/webauthn_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Srv) WhoAmI(c *app.Ctx) {
	who := app.CallerOf(c)
	c.JSON(http.StatusOK, app.H{
		"accountId":  who.AccountID,
		"username":   who.Username,
		"role":       who.Role,
		"customerId": who.CustomerID,
	})
}

func (s *Srv) Logout(c *app.Ctx) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = s.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	s.setAppCookie(c.Writer, "", -time.Second)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (s *Srv) validInvite(ctx context.Context, token string) (*models.Invite, bool) {
	inv, err := s.Repo.GetInviteByToken(ctx, token)
	if err != nil || inv.UsedAt != nil || time.Now().After(inv.ExpiresAt) {
		return nil, false
	}
	return inv, true
}

// ===== 注册（邀请制） =====

func (s *Srv) BeginRegistration(c *gin.Context) {
	var in struct {
		InviteToken string `json:"inviteToken" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()

	inv, ok := s.validInvite(ctx, in.InviteToken)
	if !ok {
		app.Abort(c, http.StatusForbidden, "FORBIDDEN", "invalid or expired invite")
		return
	}

	// 用户名强制 = 邀请邮箱；角色来自邀请
	acc, err := s.Repo.FindOrCreateAccount(ctx, inv, uuid.NewString())
	if err != nil {
		app.Fail(c, err)
		return
	}

	opts, sd, err := s.WA.BeginRegistration(
		s.waUserFor(ctx, acc),
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			UserVerification: protocol.VerificationRequired,
		}),
	)
	if err != nil {
		app.Fail(c, err)
		return
	}

	if err := s.Sess.SaveRegByToken(ctx, in.InviteToken, sd); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"opts": opts})
}

func (s *Srv) FinishRegistration(c *gin.Context) {
	token := c.Query("inviteToken")
	if token == "" {
		app.BadRequest(c, "missing inviteToken")
		return
	}

	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()
	inv, ok := s.validInvite(ctx, token)
	if !ok {
		app.Abort(c, http.StatusForbidden, "FORBIDDEN", "invalid or expired invite")
		return
	}
	wUser, err := s.loadWAUserByUsername(ctx, inv.Email)
	if err != nil {
		app.Abort(c, http.StatusNotFound, "NOT_FOUND", "account not found")
		return
	}

	sd, err := s.Sess.LoadRegByToken(ctx, token)
	if err != nil {
		app.BadRequest(c, "session expired or invalid")
		return
	}

	cred, err := s.WA.FinishRegistration(wUser, *sd, c.Request)
	if err != nil {
		app.BadRequest(c, err.Error())
		return
	}

	if err := s.Repo.AddCredential(ctx, &models.Credential{
		AccountID:       wUser.acc.ID,
		CredentialID:    cred.ID,
		PublicKey:       cred.PublicKey,
		AttestationType: cred.AttestationType,
		AAGUID:          cred.Authenticator.AAGUID,
		SignCount:       cred.Authenticator.SignCount,
		CloneWarning:    cred.Authenticator.CloneWarning,
		BackupEligible:  cred.Flags.BackupEligible,
		BackupState:     cred.Flags.BackupState,
	}); err != nil {
		app.Fail(c, err)
		return
	}
	s.Sess.DelRegByToken(ctx, token)
	if err := s.Repo.MarkInviteUsed(ctx, token); err != nil {
		s.Log.Warn("mark invite used", zap.String("email", inv.Email), zap.Error(err))
	}

	// 注册即登录
	if err := s.issueSession(ctx, c.Writer, &wUser.acc, c.ClientIP(), c.Request.UserAgent()); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "username": wUser.acc.Username, "role": wUser.acc.Role})
}

// ===== 登录 =====

type loginBeginReq struct {
	Username     string `json:"username"`
	Discoverable bool   `json:"discoverable"`
}
type loginBeginResp struct {
	Options   *protocol.CredentialAssertion `json:"options"`
	SessionID string                        `json:"sessionId"`
}

func (s *Srv) BeginLogin(c *gin.Context) {
	var req loginBeginReq
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()

	var (
		opts *protocol.CredentialAssertion
		sd   *webauthn.SessionData
		err  error
	)
	if req.Discoverable {
		opts, sd, err = s.WA.BeginDiscoverableLogin(webauthn.WithUserVerification(protocol.VerificationRequired))
	} else {
		wUser, err2 := s.loadWAUserByUsername(ctx, req.Username)
		if err2 != nil {
			app.Abort(c, http.StatusNotFound, "NOT_FOUND", "account not found")
			return
		}
		opts, sd, err = s.WA.BeginLogin(wUser, webauthn.WithUserVerification(protocol.VerificationRequired))
	}
	if err != nil {
		app.Fail(c, err)
		return
	}

	sid := uuid.NewString()
	if err := s.Sess.SaveAuth(ctx, sid, sd); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loginBeginResp{Options: opts, SessionID: sid})
}

func (s *Srv) FinishLogin(c *gin.Context) {
	sid := c.Query("sessionId")
	if sid == "" {
		app.BadRequest(c, "missing sessionId")
		return
	}
	ip, ua := c.ClientIP(), c.Request.UserAgent()

	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()
	sd, err := s.Sess.LoadAuth(ctx, sid)
	if err != nil {
		app.BadRequest(c, "session expired or invalid")
		return
	}

	var (
		wUser *waUser
		cred  *webauthn.Credential
	)
	if username := c.Query("username"); username != "" {
		wUser, err = s.loadWAUserByUsername(ctx, username)
		if err != nil {
			app.Abort(c, http.StatusNotFound, "NOT_FOUND", "account not found")
			return
		}
		cred, err = s.WA.FinishLogin(wUser, *sd, c.Request)
	} else {
		handler := func(rawID, _ []byte) (webauthn.User, error) {
			acc, err := s.Repo.FindAccountByCredentialID(ctx, rawID)
			if err != nil {
				return nil, protocol.ErrBadRequest.WithDetails("credential not found")
			}
			return s.waUserFor(ctx, acc), nil
		}
		var u webauthn.User
		u, cred, err = s.WA.FinishPasskeyLogin(handler, *sd, c.Request)
		if err == nil {
			wUser = u.(*waUser)
		}
	}
	if err != nil {
		app.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	}
	_ = s.Repo.RecordCredentialUse(ctx, cred.ID, cred.Authenticator.SignCount, cred.Authenticator.CloneWarning)
	s.Sess.DelAuth(ctx, sid)

	if err := s.issueSession(ctx, c.Writer, &wUser.acc, ip, ua); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "role": wUser.acc.Role})
}
