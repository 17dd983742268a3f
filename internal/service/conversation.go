package service

import (
	"context"
	"sort"
	"strconv"

	"murmur.chat.web/internal/model"
	"murmur.chat.web/internal/repository"
	appErrors "murmur.chat.web/pkg/errors"
)

// recentWindow 每类来源参与聚合的最近消息条数上限
// 活跃度超过窗口的最老会话可能缺席，属可接受的近似
const recentWindow = 200

// ConversationService 会话聚合服务
// 会话列表不落库，由消息账本实时派生
type ConversationService struct {
	messageRepo *repository.MessageRepository
	groupRepo   *repository.GroupRepository
	userRepo    *repository.UserRepository
}

// NewConversationService 创建会话聚合服务
func NewConversationService(messageRepo *repository.MessageRepository, groupRepo *repository.GroupRepository, userRepo *repository.UserRepository) *ConversationService {
	return &ConversationService{
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
	}
}

// List 当前用户的会话列表，按最后一条消息时间倒序
// 私聊按对端用户分桶，群聊按群分桶，每桶取最新一条
func (s *ConversationService) List(ctx context.Context, userID int64) ([]*model.Conversation, error) {
	private, err := s.messageRepo.ListRecentPrivate(ctx, userID, recentWindow)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	groupIDs, err := s.groupRepo.ListGroupIDsByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	var groupMsgs []*model.Message
	if len(groupIDs) > 0 {
		groupMsgs, err = s.messageRepo.ListRecentGroups(ctx, groupIDs, recentWindow)
		if err != nil {
			return nil, appErrors.ErrDBError.Wrap(err)
		}
	}

	conversations := mergeConversations(bucketPrivate(private, userID), bucketGroups(groupMsgs))

	if err := s.fillNames(ctx, conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// bucketPrivate 私聊消息按对端用户分桶，保留每桶最新一条
// 输入按时间倒序，首次出现即该桶最新
func bucketPrivate(messages []*model.Message, userID int64) map[int64]*model.Message {
	buckets := make(map[int64]*model.Message)
	for _, msg := range messages {
		peer := msg.PeerOf(userID)
		if _, ok := buckets[peer]; !ok {
			buckets[peer] = msg
		}
	}
	return buckets
}

// bucketGroups 群聊消息按群分桶，保留每桶最新一条
func bucketGroups(messages []*model.Message) map[int64]*model.Message {
	buckets := make(map[int64]*model.Message)
	for _, msg := range messages {
		if _, ok := buckets[*msg.GroupID]; !ok {
			buckets[*msg.GroupID] = msg
		}
	}
	return buckets
}

// mergeConversations 合并两类桶并按最后消息时间倒序
// 时间相同以雪花 ID 倒序为准，保证稳定排序
func mergeConversations(private, groups map[int64]*model.Message) []*model.Conversation {
	type entry struct {
		conv  *model.Conversation
		msgID int64
	}
	entries := make([]entry, 0, len(private)+len(groups))

	for peerID, msg := range private {
		entries = append(entries, entry{
			conv: &model.Conversation{
				Type:         model.ConversationPrivate,
				ID:           peerID,
				LastMessage:  msg.Content,
				LastAt:       msg.CreatedAt,
				LastSenderID: msg.SenderID,
			},
			msgID: msg.ID,
		})
	}
	for groupID, msg := range groups {
		entries = append(entries, entry{
			conv: &model.Conversation{
				Type:         model.ConversationGroup,
				ID:           groupID,
				LastMessage:  msg.Content,
				LastAt:       msg.CreatedAt,
				LastSenderID: msg.SenderID,
			},
			msgID: msg.ID,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].conv.LastAt.Equal(entries[j].conv.LastAt) {
			return entries[i].conv.LastAt.After(entries[j].conv.LastAt)
		}
		return entries[i].msgID > entries[j].msgID
	})

	result := make([]*model.Conversation, len(entries))
	for i, e := range entries {
		result[i] = e.conv
	}
	return result
}

// fillNames 批量填充对端用户名与群名
// 对端已被删除或群已不存在时回退为 ID 字符串，条目仍然返回
func (s *ConversationService) fillNames(ctx context.Context, conversations []*model.Conversation) error {
	var userIDs, groupIDs []int64
	for _, c := range conversations {
		switch c.Type {
		case model.ConversationPrivate:
			userIDs = append(userIDs, c.ID)
		case model.ConversationGroup:
			groupIDs = append(groupIDs, c.ID)
		}
	}

	var userNames map[int64]model.UserBrief
	var groupNames map[int64]string
	var err error

	if len(userIDs) > 0 {
		userNames, err = s.userRepo.GetBriefsByIDs(ctx, userIDs)
		if err != nil {
			return appErrors.ErrDBError.Wrap(err)
		}
	}
	if len(groupIDs) > 0 {
		groupNames, err = s.groupRepo.GetNamesByIDs(ctx, groupIDs)
		if err != nil {
			return appErrors.ErrDBError.Wrap(err)
		}
	}

	applyNames(conversations, userNames, groupNames)
	return nil
}

// applyNames 把解析出的名称写回会话，查不到的回退为 ID 字符串
func applyNames(conversations []*model.Conversation, userNames map[int64]model.UserBrief, groupNames map[int64]string) {
	for _, c := range conversations {
		switch c.Type {
		case model.ConversationPrivate:
			c.Name = userNames[c.ID].Name
		case model.ConversationGroup:
			c.Name = groupNames[c.ID]
		}
		if c.Name == "" {
			c.Name = strconv.FormatInt(c.ID, 10)
		}
	}
}
