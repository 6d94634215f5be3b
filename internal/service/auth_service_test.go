package service

import (
	"context"
	"errors"
	"testing"

	"freshapp/internal/config"
	"freshapp/internal/entity"
	"freshapp/internal/oauth"
)

func TestSignupAndLogin(t *testing.T) {
	svc, mail := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	user, err := svc.Signup(ctx, &entity.AuthSignupRequest{
		Email:    "alice@example.com",
		Password: "password123",
		FullName: "Alice",
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if user.Role != entity.UserRoleUser || user.IsVerified || !user.IsActive {
		t.Fatalf("新账号初始状态错误: %+v", user)
	}
	if len(mail.verifyCalls) != 1 || mail.verifyCalls[0] != "alice@example.com" {
		t.Fatalf("应发送一封验证邮件: %v", mail.verifyCalls)
	}

	// 默认设置应已创建
	setting, err := svc.repo.GetSettingByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("默认设置未创建: %v", err)
	}
	if setting.Theme != entity.ThemeLight || !setting.EmailNotifications {
		t.Fatalf("默认设置值错误: %+v", setting)
	}

	got, tokens, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if got.ID != user.ID || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("登录结果错误: %+v", tokens)
	}
	if tokens.TokenType != "bearer" || tokens.ExpiresIn != 3600 {
		t.Fatalf("令牌元数据错误: %+v", tokens)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("错误密码应拒绝, 实际: %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("未知邮箱应拒绝, 实际: %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	req := &entity.AuthSignupRequest{Email: "dup@example.com", Password: "password123"}
	if _, err := svc.Signup(ctx, req); err != nil {
		t.Fatalf("首次注册失败: %v", err)
	}
	if _, err := svc.Signup(ctx, req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("重复邮箱应拒绝, 实际: %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, _ := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	user, err := svc.Signup(ctx, &entity.AuthSignupRequest{Email: "off@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	inactive := false
	if err := svc.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{IsActive: &inactive}); err != nil {
		t.Fatalf("停用失败: %v", err)
	}

	if _, _, err := svc.Login(ctx, "off@example.com", "password123"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("停用账号应拒绝, 实际: %v", err)
	}
}

func TestSuperAdminBootstrap(t *testing.T) {
	cfg := config.Config{
		SuperAdminEmail:    "root@example.com",
		SuperAdminPassword: "root-password",
		SuperAdminName:     "Root",
	}
	svc, _ := newTestAuthService(t, cfg)
	ctx := context.Background()

	// 空库登录即创建管理员
	user, tokens, err := svc.Login(ctx, "root@example.com", "root-password")
	if err != nil {
		t.Fatalf("引导登录失败: %v", err)
	}
	if user.Role != entity.UserRoleAdmin || !user.IsVerified || !user.IsActive {
		t.Fatalf("引导账号状态错误: %+v", user)
	}
	if tokens.AccessToken == "" {
		t.Fatal("应签发令牌")
	}

	// 账号被破坏后再次登录自动修复
	demoted := entity.UserRoleUser
	inactive := false
	if err := svc.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{Role: &demoted, IsActive: &inactive}); err != nil {
		t.Fatalf("破坏账号失败: %v", err)
	}
	repaired, _, err := svc.Login(ctx, "root@example.com", "root-password")
	if err != nil {
		t.Fatalf("修复登录失败: %v", err)
	}
	if repaired.Role != entity.UserRoleAdmin || !repaired.IsActive {
		t.Fatalf("账号应被修复: %+v", repaired)
	}

	// 密码不匹配时不走引导逻辑
	if _, _, err := svc.Login(ctx, "root@example.com", "wrong"); err == nil {
		t.Fatal("错误密码不应触发引导")
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, mail := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	user, err := svc.Signup(ctx, &entity.AuthSignupRequest{Email: "verify@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if len(mail.verifyTokens) != 1 {
		t.Fatalf("应持有一个验证令牌: %v", mail.verifyTokens)
	}
	token := mail.verifyTokens[0]

	verified, err := svc.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("验证失败: %v", err)
	}
	if verified.ID != user.ID || !verified.IsVerified {
		t.Fatalf("账号应已验证: %+v", verified)
	}

	// 重复验证幂等
	if _, err := svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("重复验证应成功: %v", err)
	}

	if _, err := svc.VerifyEmail(ctx, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("伪造令牌应拒绝, 实际: %v", err)
	}
}

func TestVerifyEmailRejectsAccessToken(t *testing.T) {
	svc, _ := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	user, err := svc.Signup(ctx, &entity.AuthSignupRequest{Email: "mix@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	tokens, err := svc.TokensForUser(user)
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	// access token 不能当验证令牌用
	if _, err := svc.VerifyEmail(ctx, tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access 令牌应拒绝, 实际: %v", err)
	}
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	user, err := svc.Signup(ctx, &entity.AuthSignupRequest{Email: "fresh@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	tokens, err := svc.TokensForUser(user)
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatal("应签发新 access token")
	}
	// 刷新令牌不轮换，原样返回
	if refreshed.RefreshToken != tokens.RefreshToken {
		t.Fatal("refresh token 不应轮换")
	}

	// access token 不能当 refresh token 用
	if _, err := svc.Refresh(ctx, tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access 令牌应拒绝, 实际: %v", err)
	}

	// 停用后刷新被拒
	inactive := false
	if err := svc.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{IsActive: &inactive}); err != nil {
		t.Fatalf("停用失败: %v", err)
	}
	if _, err := svc.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("停用账号刷新应拒绝, 实际: %v", err)
	}
}

func TestGoogleSignIn(t *testing.T) {
	svc, _ := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	identity := &oauth.Identity{
		Subject:   "g-1001",
		Email:     "guser@example.com",
		Name:      "G User",
		AvatarURL: "http://img/avatar",
	}

	// 首次登录创建已验证账号
	user, tokens, err := svc.GoogleSignIn(ctx, identity)
	if err != nil {
		t.Fatalf("Google 登录失败: %v", err)
	}
	if !user.IsVerified || user.Role != entity.UserRoleUser || user.FullName != "G User" {
		t.Fatalf("新建账号状态错误: %+v", user)
	}
	if tokens.AccessToken == "" {
		t.Fatal("应签发令牌")
	}

	// 再次登录命中同一账号
	again, _, err := svc.GoogleSignIn(ctx, identity)
	if err != nil {
		t.Fatalf("二次登录失败: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("应复用已有账号: %d vs %d", again.ID, user.ID)
	}
}

func TestGoogleSignInRefreshesProfile(t *testing.T) {
	svc, _ := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	user, _, err := svc.GoogleSignIn(ctx, &oauth.Identity{
		Subject:   "g-3003",
		Email:     "ref@example.com",
		Name:      "Old Name",
		AvatarURL: "http://img/old",
	})
	if err != nil {
		t.Fatalf("首次登录失败: %v", err)
	}

	// 资料变更后再次登录应同步 full_name / avatar
	again, _, err := svc.GoogleSignIn(ctx, &oauth.Identity{
		Subject:   "g-3003",
		Email:     "ref@example.com",
		Name:      "New Name",
		AvatarURL: "http://img/new",
	})
	if err != nil {
		t.Fatalf("二次登录失败: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("应复用已有账号: %d vs %d", again.ID, user.ID)
	}
	if again.FullName != "New Name" || again.AvatarURL != "http://img/new" {
		t.Fatalf("资料应已刷新: %+v", again)
	}

	// 身份侧字段为空时不清空已有资料
	kept, _, err := svc.GoogleSignIn(ctx, &oauth.Identity{Subject: "g-3003", Email: "ref@example.com"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if kept.FullName != "New Name" || kept.AvatarURL != "http://img/new" {
		t.Fatalf("空字段不应覆盖: %+v", kept)
	}

	// 验证标记被撤销后登录时恢复
	unverified := false
	if err := svc.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{IsVerified: &unverified}); err != nil {
		t.Fatalf("撤销验证失败: %v", err)
	}
	restored, _, err := svc.GoogleSignIn(ctx, &oauth.Identity{Subject: "g-3003", Email: "ref@example.com"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if !restored.IsVerified {
		t.Fatalf("登录应恢复验证标记: %+v", restored)
	}
}

func TestDisplayNameDefaultsToEmailLocalPart(t *testing.T) {
	svc, _ := newTestAuthService(t, config.Config{
		SuperAdminEmail:    "ops@example.com",
		SuperAdminPassword: "ops-password",
	})
	ctx := context.Background()

	// 注册不带姓名
	user, err := svc.Signup(ctx, &entity.AuthSignupRequest{Email: "no.name@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if user.FullName != "no.name" {
		t.Fatalf("姓名应回退为邮箱前缀: %q", user.FullName)
	}

	// 邀请不带姓名
	invited, err := svc.CreateInvitedUser(ctx, &entity.UserCreateRequest{Email: "team@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if invited.FullName != "team" {
		t.Fatalf("姓名应回退为邮箱前缀: %q", invited.FullName)
	}

	// Google 身份无姓名
	guser, _, err := svc.GoogleSignIn(ctx, &oauth.Identity{Subject: "g-4004", Email: "gonly@example.com"})
	if err != nil {
		t.Fatalf("Google 登录失败: %v", err)
	}
	if guser.FullName != "gonly" {
		t.Fatalf("姓名应回退为邮箱前缀: %q", guser.FullName)
	}

	// 引导管理员未配置姓名
	admin, _, err := svc.Login(ctx, "ops@example.com", "ops-password")
	if err != nil {
		t.Fatalf("引导登录失败: %v", err)
	}
	if admin.FullName != "ops" {
		t.Fatalf("姓名应回退为邮箱前缀: %q", admin.FullName)
	}
}

func TestGoogleSignInLinksExistingAccount(t *testing.T) {
	svc, _ := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	existing, err := svc.Signup(ctx, &entity.AuthSignupRequest{Email: "linked@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if existing.IsVerified {
		t.Fatal("密码注册不应直接验证")
	}

	linked, _, err := svc.GoogleSignIn(ctx, &oauth.Identity{
		Subject: "g-2002",
		Email:   "linked@example.com",
		Name:    "Linked",
	})
	if err != nil {
		t.Fatalf("绑定登录失败: %v", err)
	}
	if linked.ID != existing.ID {
		t.Fatalf("应绑定到已有账号: %d vs %d", linked.ID, existing.ID)
	}
	if !linked.IsVerified {
		t.Fatal("Google 绑定应视为邮箱已验证")
	}

	// 绑定后仍可用密码登录
	if _, _, err := svc.Login(ctx, "linked@example.com", "password123"); err != nil {
		t.Fatalf("密码登录应保留: %v", err)
	}
}

func TestCreateInvitedUser(t *testing.T) {
	svc, mail := newTestAuthService(t, config.Config{})
	ctx := context.Background()

	user, err := svc.CreateInvitedUser(ctx, &entity.UserCreateRequest{
		Email:    "invited@example.com",
		Password: "password123",
		FullName: "Invited",
		Role:     entity.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if user.Role != entity.UserRoleAdmin || user.IsVerified {
		t.Fatalf("受邀账号状态错误: %+v", user)
	}
	if len(mail.inviteCalls) != 1 {
		t.Fatalf("应发送邀请邮件: %v", mail.inviteCalls)
	}

	// 未知角色回退为普通用户
	fallback, err := svc.CreateInvitedUser(ctx, &entity.UserCreateRequest{
		Email:    "plain@example.com",
		Password: "password123",
		Role:     "owner",
	})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if fallback.Role != entity.UserRoleUser {
		t.Fatalf("未知角色应回退为 user: %q", fallback.Role)
	}

	// 邀请令牌走同一验证入口
	inviteToken := mail.verifyTokens[len(mail.verifyTokens)-1]
	verified, err := svc.VerifyEmail(ctx, inviteToken)
	if err != nil {
		t.Fatalf("邀请令牌验证失败: %v", err)
	}
	if !verified.IsVerified {
		t.Fatal("账号应已验证")
	}
}

func TestSignupSurvivesBrokenMailer(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewAuthService(repo, newTestTokenManager(t), &stubMailer{configured: false}, config.Config{})

	// 未配置邮件不影响注册本身
	user, err := svc.Signup(context.Background(), &entity.AuthSignupRequest{Email: "nomail@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("注册应成功: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("账号应已落库")
	}
}
