package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur.chat.web/internal/model"
	"murmur.chat.web/internal/repository"
	appErrors "murmur.chat.web/pkg/errors"
	"murmur.chat.web/pkg/snowflake"
)

// 测试配置 - 使用环境变量或默认值
var (
	testDBHost     = getTestEnv("POSTGRES_HOST", "localhost")
	testDBPort     = getTestEnv("POSTGRES_PORT", "5432")
	testDBUser     = getTestEnv("POSTGRES_USER", "murmur")
	testDBPassword = getTestEnv("POSTGRES_PASSWORD", "murmur")
	testDBName     = getTestEnv("POSTGRES_DB", "murmur")
)

func getTestEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// testEnv 集成测试依赖
type testEnv struct {
	db                 *pgxpool.Pool
	sfNode             *snowflake.Node
	userRepo           *repository.UserRepository
	groupRepo          *repository.GroupRepository
	joinRequestRepo    *repository.JoinRequestRepository
	messageRepo        *repository.MessageRepository
	groupService       *GroupService
	joinRequestService *JoinRequestService
	messageService     *MessageService
	convService        *ConversationService
	userService        *UserService
	adminService       *AdminService
}

// setupIntegrationTest 连接数据库，不可达时跳过
func setupIntegrationTest(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		testDBUser, testDBPassword, testDBHost, testDBPort, testDBName)

	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("跳过集成测试: 无法连接数据库: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		t.Skipf("跳过集成测试: 数据库 ping 失败: %v", err)
	}

	sfNode, err := snowflake.NewNode(1)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	joinRequestRepo := repository.NewJoinRequestRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	env := &testEnv{
		db:                 db,
		sfNode:             sfNode,
		userRepo:           userRepo,
		groupRepo:          groupRepo,
		joinRequestRepo:    joinRequestRepo,
		messageRepo:        messageRepo,
		groupService:       NewGroupService(groupRepo, sfNode),
		joinRequestService: NewJoinRequestService(joinRequestRepo, groupRepo, sfNode),
		messageService:     NewMessageService(messageRepo, groupRepo, nil, sfNode),
		convService:        NewConversationService(messageRepo, groupRepo, userRepo),
		userService:        NewUserService(userRepo),
		adminService:       NewAdminService(userRepo, groupRepo, messageRepo, nil, nil, nil, sfNode),
	}
	t.Cleanup(func() { db.Close() })
	return env
}

// createTestUser 创建测试用户并登记清理
func (e *testEnv) createTestUser(t *testing.T, prefix string) *model.User {
	t.Helper()
	ctx := context.Background()
	user := &model.User{
		ID:           e.sfNode.Generate().Int64(),
		Username:     fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano()),
		PasswordHash: "x",
		Name:         prefix,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, e.userRepo.Create(ctx, user))
	t.Cleanup(func() {
		e.db.Exec(ctx, "DELETE FROM messages WHERE sender_id = $1 OR recipient_id = $1", user.ID)
		e.db.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID)
	})
	return user
}

// createTestGroup 创建测试群组并登记清理
func (e *testEnv) createTestGroup(t *testing.T, creatorID int64) *model.Group {
	t.Helper()
	ctx := context.Background()
	group, err := e.groupService.CreateGroup(ctx, creatorID, fmt.Sprintf("group_%d", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() {
		e.db.Exec(ctx, "DELETE FROM messages WHERE group_id = $1", group.ID)
		e.db.Exec(ctx, "DELETE FROM group_join_requests WHERE group_id = $1", group.ID)
		e.db.Exec(ctx, "DELETE FROM group_members WHERE group_id = $1", group.ID)
		e.db.Exec(ctx, "DELETE FROM groups WHERE id = $1", group.ID)
	})
	return group
}

// TestIntegration_CreateGroup_CreatorIsMember 建群后创建者立即是成员
func TestIntegration_CreateGroup_CreatorIsMember(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	creator := env.createTestUser(t, "creator")
	group := env.createTestGroup(t, creator.ID)

	isMember, err := env.groupRepo.IsMember(ctx, group.ID, creator.ID)
	require.NoError(t, err)
	assert.True(t, isMember, "创建者应自动成为成员")

	members, err := env.groupService.ListMembers(ctx, group.ID, creator.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, creator.ID, members[0].ID)
}

// TestIntegration_AddMember_Idempotent 重复添加成员不报错且不产生新记录
func TestIntegration_AddMember_Idempotent(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	creator := env.createTestUser(t, "creator")
	other := env.createTestUser(t, "other")
	group := env.createTestGroup(t, creator.ID)

	_, created, err := env.groupService.AddMember(ctx, group.ID, creator.ID, other.ID)
	require.NoError(t, err)
	assert.True(t, created)

	member2, created, err := env.groupService.AddMember(ctx, group.ID, creator.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, created, "重复添加应幂等")
	assert.Equal(t, other.ID, member2.UserID)

	members, err := env.groupService.ListMembers(ctx, group.ID, creator.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

// TestIntegration_AddMember_RequiresMembership 非成员不能拉人
func TestIntegration_AddMember_RequiresMembership(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	creator := env.createTestUser(t, "creator")
	outsider := env.createTestUser(t, "outsider")
	target := env.createTestUser(t, "target")
	group := env.createTestGroup(t, creator.ID)

	_, _, err := env.groupService.AddMember(ctx, group.ID, outsider.ID, target.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotGroupMember)
}

// TestIntegration_Leave_CreatorCannotLeave 创建者不可退群
func TestIntegration_Leave_CreatorCannotLeave(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	creator := env.createTestUser(t, "creator")
	member := env.createTestUser(t, "member")
	group := env.createTestGroup(t, creator.ID)

	err := env.groupService.Leave(ctx, group.ID, creator.ID)
	assert.ErrorIs(t, err, appErrors.ErrCreatorCannotLeave)

	// 普通成员可以退
	_, _, err = env.groupService.AddMember(ctx, group.ID, creator.ID, member.ID)
	require.NoError(t, err)
	require.NoError(t, env.groupService.Leave(ctx, group.ID, member.ID))

	// 非成员退群返回 404
	err = env.groupService.Leave(ctx, group.ID, member.ID)
	assert.ErrorIs(t, err, appErrors.ErrMembershipNotFound)
}

// TestIntegration_JoinRequest_Lifecycle 申请-查询-批准全流程
func TestIntegration_JoinRequest_Lifecycle(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	creator := env.createTestUser(t, "creator")
	applicant := env.createTestUser(t, "applicant")
	group := env.createTestGroup(t, creator.ID)

	// 初始状态 none
	status, err := env.joinRequestService.Status(ctx, group.ID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JoinStatusNone, status)

	// 提交申请
	result, err := env.joinRequestService.RequestJoin(ctx, group.ID, applicant.ID)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, model.JoinStatusPending, result.Status)

	// 重复申请幂等，原记录原样返回
	result2, err := env.joinRequestService.RequestJoin(ctx, group.ID, applicant.ID)
	require.NoError(t, err)
	assert.False(t, result2.Created)
	assert.Equal(t, model.JoinStatusPending, result2.Status)

	// 成员批准
	require.NoError(t, env.joinRequestService.Approve(ctx, group.ID, creator.ID, applicant.ID))

	// 批准后是成员，状态优先返回 member
	status, err = env.joinRequestService.Status(ctx, group.ID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JoinStatusMember, status)

	isMember, err := env.groupRepo.IsMember(ctx, group.ID, applicant.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	// 已是成员后再申请直接返回 member，不产生新记录
	result3, err := env.joinRequestService.RequestJoin(ctx, group.ID, applicant.ID)
	require.NoError(t, err)
	assert.False(t, result3.Created)
	assert.Equal(t, model.JoinStatusMember, result3.Status)
}

// TestIntegration_Approve_MissingRequest 没有申请记录时批准返回 404
func TestIntegration_Approve_MissingRequest(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	creator := env.createTestUser(t, "creator")
	stranger := env.createTestUser(t, "stranger")
	group := env.createTestGroup(t, creator.ID)

	err := env.joinRequestService.Approve(ctx, group.ID, creator.ID, stranger.ID)
	assert.ErrorIs(t, err, appErrors.ErrJoinRequestNotFound)
}

// TestIntegration_Message_PrivateFlow 私聊发送、列表与已读
func TestIntegration_Message_PrivateFlow(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	alice := env.createTestUser(t, "alice")
	bob := env.createTestUser(t, "bob")

	m1, err := env.messageService.Send(ctx, alice.ID, PrivateTarget(bob.ID), "hi bob")
	require.NoError(t, err)
	m2, err := env.messageService.Send(ctx, bob.ID, PrivateTarget(alice.ID), "hi alice")
	require.NoError(t, err)

	// 双向消息升序可见
	list, err := env.messageService.ListPrivate(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, m1.ID, list[0].ID)
	assert.Equal(t, m2.ID, list[1].ID)

	// 发送者不能标记自己发的消息
	_, err = env.messageService.MarkRead(ctx, alice.ID, m1.ID)
	assert.ErrorIs(t, err, appErrors.ErrMessageForbidden)

	// 接收者标记已读
	read, err := env.messageService.MarkRead(ctx, bob.ID, m1.ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)

	// 幂等：重复标记返回原 read_at
	read2, err := env.messageService.MarkRead(ctx, bob.ID, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, read.ReadAt.UnixMicro(), read2.ReadAt.UnixMicro())
}

// TestIntegration_Message_GroupRequiresMembership 非成员不能发群消息也不能读
func TestIntegration_Message_GroupRequiresMembership(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	creator := env.createTestUser(t, "creator")
	outsider := env.createTestUser(t, "outsider")
	group := env.createTestGroup(t, creator.ID)

	_, err := env.messageService.Send(ctx, outsider.ID, GroupTarget(group.ID), "let me in")
	assert.ErrorIs(t, err, appErrors.ErrNotGroupMember)

	_, err = env.messageService.Send(ctx, creator.ID, GroupTarget(group.ID), "welcome")
	require.NoError(t, err)

	_, err = env.messageService.ListGroup(ctx, outsider.ID, group.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotGroupMember)

	list, err := env.messageService.ListGroup(ctx, creator.ID, group.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// TestIntegration_Message_SameTimestampOrder 同一时间戳的消息按 ID 升序
func TestIntegration_Message_SameTimestampOrder(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	alice := env.createTestUser(t, "alice")
	bob := env.createTestUser(t, "bob")

	m1, err := env.messageService.Send(ctx, alice.ID, PrivateTarget(bob.ID), "one")
	require.NoError(t, err)
	m2, err := env.messageService.Send(ctx, bob.ID, PrivateTarget(alice.ID), "two")
	require.NoError(t, err)
	m3, err := env.messageService.Send(ctx, alice.ID, PrivateTarget(bob.ID), "three")
	require.NoError(t, err)

	// 抹平时间戳，只剩 ID 决定顺序
	_, err = env.db.Exec(ctx,
		"UPDATE messages SET created_at = $1 WHERE id = ANY($2)",
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		[]int64{m1.ID, m2.ID, m3.ID},
	)
	require.NoError(t, err)

	list, err := env.messageService.ListPrivate(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, m1.ID, list[0].ID)
	assert.Equal(t, m2.ID, list[1].ID)
	assert.Equal(t, m3.ID, list[2].ID)
}

// TestIntegration_AdminPurgePrivateChat 管理端软删除两用户间的私聊
func TestIntegration_AdminPurgePrivateChat(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	alice := env.createTestUser(t, "alice")
	bob := env.createTestUser(t, "bob")
	carol := env.createTestUser(t, "carol")

	_, err := env.messageService.Send(ctx, alice.ID, PrivateTarget(bob.ID), "hi bob")
	require.NoError(t, err)
	_, err = env.messageService.Send(ctx, bob.ID, PrivateTarget(alice.ID), "hi alice")
	require.NoError(t, err)
	_, err = env.messageService.Send(ctx, alice.ID, PrivateTarget(carol.ID), "hi carol")
	require.NoError(t, err)

	// 双向命中，旁观会话不受影响
	count, err := env.adminService.DeletePrivateChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	list, err := env.messageService.ListPrivate(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "被清除的私聊不应再出现")

	other, err := env.messageService.ListPrivate(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	// 幂等：重复清除影响 0 条
	count, err = env.adminService.DeletePrivateChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// TestIntegration_Profile 个人资料读取与更新
func TestIntegration_Profile(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	user := env.createTestUser(t, "profiled")

	profile, err := env.userService.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, profile.Username)
	assert.Equal(t, user.Name, profile.Name)

	// 更新显示名，首尾空白被去除
	updated, err := env.userService.UpdateProfile(ctx, user.ID, "  新名字  ")
	require.NoError(t, err)
	assert.Equal(t, "新名字", updated.Name)

	brief, err := env.userService.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "新名字", brief.Name)

	// 空名称拒绝
	_, err = env.userService.UpdateProfile(ctx, user.ID, "   ")
	assert.ErrorIs(t, err, appErrors.ErrInvalidParams)

	// 不存在的用户返回 404
	_, err = env.userService.Get(ctx, env.sfNode.Generate().Int64())
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)
}

// TestIntegration_Conversations 聚合私聊与群聊会话，倒序
func TestIntegration_Conversations(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	alice := env.createTestUser(t, "alice")
	bob := env.createTestUser(t, "bob")
	group := env.createTestGroup(t, alice.ID)

	_, err := env.messageService.Send(ctx, alice.ID, PrivateTarget(bob.ID), "first")
	require.NoError(t, err)
	_, err = env.messageService.Send(ctx, alice.ID, GroupTarget(group.ID), "second")
	require.NoError(t, err)

	conversations, err := env.convService.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	// 群消息更晚，排在前面
	assert.Equal(t, model.ConversationGroup, conversations[0].Type)
	assert.Equal(t, group.ID, conversations[0].ID)
	assert.Equal(t, "second", conversations[0].LastMessage)
	assert.Equal(t, model.ConversationPrivate, conversations[1].Type)
	assert.Equal(t, bob.ID, conversations[1].ID)

	// 对端视角同样能看到私聊会话
	bobConvs, err := env.convService.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobConvs, 1)
	assert.Equal(t, alice.ID, bobConvs[0].ID)
	assert.Equal(t, alice.Name, bobConvs[0].Name)

	// 对端被软删除后名称回退为 ID 字符串
	_, err = env.userRepo.SoftDelete(ctx, bob.ID)
	require.NoError(t, err)

	conversations, err = env.convService.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, strconv.FormatInt(bob.ID, 10), conversations[1].Name)
}

// TestIntegration_DeleteGroup_Cascade 群主删群级联清除消息、成员与申请
func TestIntegration_DeleteGroup_Cascade(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	creator := env.createTestUser(t, "creator")
	member := env.createTestUser(t, "member")
	group := env.createTestGroup(t, creator.ID)

	_, _, err := env.groupService.AddMember(ctx, group.ID, creator.ID, member.ID)
	require.NoError(t, err)
	_, err = env.messageService.Send(ctx, member.ID, GroupTarget(group.ID), "soon gone")
	require.NoError(t, err)

	// 非创建者不能删群
	err = env.groupService.DeleteGroup(ctx, group.ID, member.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotGroupCreator)

	require.NoError(t, env.groupService.DeleteGroup(ctx, group.ID, creator.ID))

	var count int
	require.NoError(t, env.db.QueryRow(ctx, "SELECT COUNT(*) FROM messages WHERE group_id = $1", group.ID).Scan(&count))
	assert.Zero(t, count, "群消息应被级联删除")
	require.NoError(t, env.db.QueryRow(ctx, "SELECT COUNT(*) FROM group_members WHERE group_id = $1", group.ID).Scan(&count))
	assert.Zero(t, count, "群成员应被级联删除")
}
