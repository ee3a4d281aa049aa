// Copyright (c) 2024 tgkit

package telegram

// UpdateCategory tags the populated variant of an Update.
type UpdateCategory string

const (
	CategoryMessage              UpdateCategory = "message"
	CategoryEditedMessage        UpdateCategory = "edited_message"
	CategoryChannelPost          UpdateCategory = "channel_post"
	CategoryEditedChannelPost    UpdateCategory = "edited_channel_post"
	CategoryCallbackQuery        UpdateCategory = "callback_query"
	CategoryInlineQuery          UpdateCategory = "inline_query"
	CategoryChosenInlineResult   UpdateCategory = "chosen_inline_result"
	CategoryShippingQuery        UpdateCategory = "shipping_query"
	CategoryPreCheckoutQuery     UpdateCategory = "pre_checkout_query"
	CategoryPoll                 UpdateCategory = "poll"
	CategoryPollAnswer           UpdateCategory = "poll_answer"
	CategoryMyChatMember         UpdateCategory = "my_chat_member"
	CategoryChatMember           UpdateCategory = "chat_member"
	CategoryChatJoinRequest      UpdateCategory = "chat_join_request"
	CategoryMessageReaction      UpdateCategory = "message_reaction"
	CategoryMessageReactionCount UpdateCategory = "message_reaction_count"
	categoryUnknown              UpdateCategory = "unknown"
)

// Update is one event delivered by the Bot API. Exactly one variant
// field is non-nil.
type Update struct {
	UpdateID             int                          `json:"update_id"`
	Message              *Message                     `json:"message,omitempty"`
	EditedMessage        *Message                     `json:"edited_message,omitempty"`
	ChannelPost          *Message                     `json:"channel_post,omitempty"`
	EditedChannelPost    *Message                     `json:"edited_channel_post,omitempty"`
	CallbackQuery        *CallbackQuery               `json:"callback_query,omitempty"`
	InlineQuery          *InlineQuery                 `json:"inline_query,omitempty"`
	ChosenInlineResult   *ChosenInlineResult          `json:"chosen_inline_result,omitempty"`
	ShippingQuery        *ShippingQuery               `json:"shipping_query,omitempty"`
	PreCheckoutQuery     *PreCheckoutQuery            `json:"pre_checkout_query,omitempty"`
	Poll                 *Poll                        `json:"poll,omitempty"`
	PollAnswer           *PollAnswer                  `json:"poll_answer,omitempty"`
	MyChatMember         *ChatMemberUpdated           `json:"my_chat_member,omitempty"`
	ChatMember           *ChatMemberUpdated           `json:"chat_member,omitempty"`
	ChatJoinRequest      *ChatJoinRequest             `json:"chat_join_request,omitempty"`
	MessageReaction      *MessageReactionUpdated      `json:"message_reaction,omitempty"`
	MessageReactionCount *MessageReactionCountUpdated `json:"message_reaction_count,omitempty"`
}

// Category returns the tag of the populated variant.
func (u *Update) Category() UpdateCategory {
	switch {
	case u.Message != nil:
		return CategoryMessage
	case u.EditedMessage != nil:
		return CategoryEditedMessage
	case u.ChannelPost != nil:
		return CategoryChannelPost
	case u.EditedChannelPost != nil:
		return CategoryEditedChannelPost
	case u.CallbackQuery != nil:
		return CategoryCallbackQuery
	case u.InlineQuery != nil:
		return CategoryInlineQuery
	case u.ChosenInlineResult != nil:
		return CategoryChosenInlineResult
	case u.ShippingQuery != nil:
		return CategoryShippingQuery
	case u.PreCheckoutQuery != nil:
		return CategoryPreCheckoutQuery
	case u.Poll != nil:
		return CategoryPoll
	case u.PollAnswer != nil:
		return CategoryPollAnswer
	case u.MyChatMember != nil:
		return CategoryMyChatMember
	case u.ChatMember != nil:
		return CategoryChatMember
	case u.ChatJoinRequest != nil:
		return CategoryChatJoinRequest
	case u.MessageReaction != nil:
		return CategoryMessageReaction
	case u.MessageReactionCount != nil:
		return CategoryMessageReactionCount
	default:
		return categoryUnknown
	}
}

// EffectiveMessage returns the message payload for the message-like
// categories, nil otherwise.
func (u *Update) EffectiveMessage() *Message {
	switch {
	case u.Message != nil:
		return u.Message
	case u.EditedMessage != nil:
		return u.EditedMessage
	case u.ChannelPost != nil:
		return u.ChannelPost
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost
	default:
		return nil
	}
}

type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
)

type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (c *Chat) IsPrivate() bool {
	return c != nil && c.Type == ChatTypePrivate
}

type Message struct {
	MessageID        int                   `json:"message_id"`
	From             *User                 `json:"from,omitempty"`
	SenderChat       *Chat                 `json:"sender_chat,omitempty"`
	Date             int64                 `json:"date"`
	Chat             Chat                  `json:"chat"`
	ForwardFrom      *User                 `json:"forward_from,omitempty"`
	ForwardDate      int64                 `json:"forward_date,omitempty"`
	ReplyToMessage   *Message              `json:"reply_to_message,omitempty"`
	EditDate         int64                 `json:"edit_date,omitempty"`
	MediaGroupID     string                `json:"media_group_id,omitempty"`
	Text             string                `json:"text,omitempty"`
	Entities         []MessageEntity       `json:"entities,omitempty"`
	Caption          string                `json:"caption,omitempty"`
	CaptionEntities  []MessageEntity       `json:"caption_entities,omitempty"`
	Audio            *Audio                `json:"audio,omitempty"`
	Document         *Document             `json:"document,omitempty"`
	Animation        *Animation            `json:"animation,omitempty"`
	Photo            []PhotoSize           `json:"photo,omitempty"`
	Sticker          *Sticker              `json:"sticker,omitempty"`
	Video            *Video                `json:"video,omitempty"`
	VideoNote        *VideoNote            `json:"video_note,omitempty"`
	Voice            *Voice                `json:"voice,omitempty"`
	Contact          *Contact              `json:"contact,omitempty"`
	Dice             *Dice                 `json:"dice,omitempty"`
	Poll             *Poll                 `json:"poll,omitempty"`
	Venue            *Venue                `json:"venue,omitempty"`
	Location         *Location             `json:"location,omitempty"`
	NewChatMembers   []User                `json:"new_chat_members,omitempty"`
	LeftChatMember   *User                 `json:"left_chat_member,omitempty"`
	NewChatTitle     string                `json:"new_chat_title,omitempty"`
	NewChatPhoto     []PhotoSize           `json:"new_chat_photo,omitempty"`
	DeleteChatPhoto  bool                  `json:"delete_chat_photo,omitempty"`
	GroupChatCreated bool                  `json:"group_chat_created,omitempty"`
	PinnedMessage    *Message              `json:"pinned_message,omitempty"`
	ReplyMarkup      *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// Content type tags, mirroring the update payload field that is set.
const (
	ContentText           = "text"
	ContentAudio          = "audio"
	ContentDocument       = "document"
	ContentAnimation      = "animation"
	ContentPhoto          = "photo"
	ContentSticker        = "sticker"
	ContentVideo          = "video"
	ContentVideoNote      = "video_note"
	ContentVoice          = "voice"
	ContentContact        = "contact"
	ContentDice           = "dice"
	ContentPoll           = "poll"
	ContentVenue          = "venue"
	ContentLocation       = "location"
	ContentNewChatMembers = "new_chat_members"
	ContentLeftChatMember = "left_chat_member"
	ContentNewChatTitle   = "new_chat_title"
	ContentNewChatPhoto   = "new_chat_photo"
	ContentPinnedMessage  = "pinned_message"
	ContentUnknown        = "unknown"
)

// ContentType derives the content tag of the message. Order matters for
// payloads that set several fields (a photo with caption is a photo).
func (m *Message) ContentType() string {
	switch {
	case m.Text != "":
		return ContentText
	case m.Animation != nil:
		// Animations also carry Document; check first.
		return ContentAnimation
	case m.Audio != nil:
		return ContentAudio
	case m.Document != nil:
		return ContentDocument
	case len(m.Photo) > 0:
		return ContentPhoto
	case m.Sticker != nil:
		return ContentSticker
	case m.Video != nil:
		return ContentVideo
	case m.VideoNote != nil:
		return ContentVideoNote
	case m.Voice != nil:
		return ContentVoice
	case m.Contact != nil:
		return ContentContact
	case m.Dice != nil:
		return ContentDice
	case m.Poll != nil:
		return ContentPoll
	case m.Venue != nil:
		return ContentVenue
	case m.Location != nil:
		return ContentLocation
	case len(m.NewChatMembers) > 0:
		return ContentNewChatMembers
	case m.LeftChatMember != nil:
		return ContentLeftChatMember
	case m.NewChatTitle != "":
		return ContentNewChatTitle
	case len(m.NewChatPhoto) > 0:
		return ContentNewChatPhoto
	case m.PinnedMessage != nil:
		return ContentPinnedMessage
	default:
		return ContentUnknown
	}
}

func (m *Message) ChatID() int64 {
	return m.Chat.ID
}

func (m *Message) SenderID() int64 {
	if m.From != nil {
		return m.From.ID
	}
	return 0
}

func (m *Message) IsPrivate() bool {
	return m.Chat.IsPrivate()
}

func (m *Message) IsReply() bool {
	return m.ReplyToMessage != nil
}

func (m *Message) IsForward() bool {
	return m.ForwardDate != 0
}

func (m *Message) IsCommand() bool {
	return IsCommand(m.Text)
}

// TextOrCaption returns the textual payload regardless of whether the
// message is plain text or captioned media.
func (m *Message) TextOrCaption() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

type MessageEntity struct {
	Type     string `json:"type"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	URL      string `json:"url,omitempty"`
	User     *User  `json:"user,omitempty"`
	Language string `json:"language,omitempty"`
}

type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type Audio struct {
	FileID    string `json:"file_id"`
	Duration  int    `json:"duration"`
	Performer string `json:"performer,omitempty"`
	Title     string `json:"title,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	FileSize  int64  `json:"file_size,omitempty"`
}

type Document struct {
	FileID   string     `json:"file_id"`
	Thumb    *PhotoSize `json:"thumb,omitempty"`
	FileName string     `json:"file_name,omitempty"`
	MimeType string     `json:"mime_type,omitempty"`
	FileSize int64      `json:"file_size,omitempty"`
}

type Animation struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Duration int    `json:"duration"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type Sticker struct {
	FileID     string `json:"file_id"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	IsAnimated bool   `json:"is_animated"`
	Emoji      string `json:"emoji,omitempty"`
	SetName    string `json:"set_name,omitempty"`
	FileSize   int64  `json:"file_size,omitempty"`
}

type Video struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type VideoNote struct {
	FileID   string `json:"file_id"`
	Length   int    `json:"length"`
	Duration int    `json:"duration"`
	FileSize int64  `json:"file_size,omitempty"`
}

type Voice struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
}

type Dice struct {
	Emoji string `json:"emoji"`
	Value int    `json:"value"`
}

type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type Venue struct {
	Location Location `json:"location"`
	Title    string   `json:"title"`
	Address  string   `json:"address"`
}

type Poll struct {
	ID              string       `json:"id"`
	Question        string       `json:"question"`
	Options         []PollOption `json:"options"`
	TotalVoterCount int          `json:"total_voter_count"`
	IsClosed        bool         `json:"is_closed"`
	IsAnonymous     bool         `json:"is_anonymous"`
	Type            string       `json:"type"`
}

type PollOption struct {
	Text       string `json:"text"`
	VoterCount int    `json:"voter_count"`
}

type PollAnswer struct {
	PollID    string `json:"poll_id"`
	User      *User  `json:"user,omitempty"`
	OptionIDs []int  `json:"option_ids"`
}

type CallbackQuery struct {
	ID              string   `json:"id"`
	From            User     `json:"from"`
	Message         *Message `json:"message,omitempty"`
	InlineMessageID string   `json:"inline_message_id,omitempty"`
	ChatInstance    string   `json:"chat_instance"`
	Data            string   `json:"data,omitempty"`
	GameShortName   string   `json:"game_short_name,omitempty"`
}

// ChatID returns the chat the pressed button lives in, 0 for inline
// messages without an attached chat.
func (q *CallbackQuery) ChatID() int64 {
	if q.Message != nil {
		return q.Message.Chat.ID
	}
	return 0
}

type InlineQuery struct {
	ID       string    `json:"id"`
	From     User      `json:"from"`
	Query    string    `json:"query"`
	Offset   string    `json:"offset"`
	ChatType string    `json:"chat_type,omitempty"`
	Location *Location `json:"location,omitempty"`
}

type ChosenInlineResult struct {
	ResultID        string    `json:"result_id"`
	From            User      `json:"from"`
	Location        *Location `json:"location,omitempty"`
	InlineMessageID string    `json:"inline_message_id,omitempty"`
	Query           string    `json:"query"`
}

type ShippingQuery struct {
	ID              string          `json:"id"`
	From            User            `json:"from"`
	InvoicePayload  string          `json:"invoice_payload"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
}

type ShippingAddress struct {
	CountryCode string `json:"country_code"`
	State       string `json:"state"`
	City        string `json:"city"`
	StreetLine1 string `json:"street_line1"`
	StreetLine2 string `json:"street_line2"`
	PostCode    string `json:"post_code"`
}

type PreCheckoutQuery struct {
	ID             string `json:"id"`
	From           User   `json:"from"`
	Currency       string `json:"currency"`
	TotalAmount    int    `json:"total_amount"`
	InvoicePayload string `json:"invoice_payload"`
}

type ChatMemberUpdated struct {
	Chat          Chat            `json:"chat"`
	From          User            `json:"from"`
	Date          int64           `json:"date"`
	OldChatMember ChatMember      `json:"old_chat_member"`
	NewChatMember ChatMember      `json:"new_chat_member"`
	InviteLink    *ChatInviteLink `json:"invite_link,omitempty"`
}

type ChatMember struct {
	User   User   `json:"user"`
	Status string `json:"status"`
}

type ChatInviteLink struct {
	InviteLink  string `json:"invite_link"`
	Creator     User   `json:"creator"`
	IsPrimary   bool   `json:"is_primary"`
	IsRevoked   bool   `json:"is_revoked"`
	Name        string `json:"name,omitempty"`
	MemberLimit int    `json:"member_limit,omitempty"`
}

type ChatJoinRequest struct {
	Chat       Chat            `json:"chat"`
	From       User            `json:"from"`
	UserChatID int64           `json:"user_chat_id"`
	Date       int64           `json:"date"`
	Bio        string          `json:"bio,omitempty"`
	InviteLink *ChatInviteLink `json:"invite_link,omitempty"`
}

type ReactionType struct {
	Type          string `json:"type"`
	Emoji         string `json:"emoji,omitempty"`
	CustomEmojiID string `json:"custom_emoji_id,omitempty"`
}

type MessageReactionUpdated struct {
	Chat        Chat           `json:"chat"`
	MessageID   int            `json:"message_id"`
	User        *User          `json:"user,omitempty"`
	ActorChat   *Chat          `json:"actor_chat,omitempty"`
	Date        int64          `json:"date"`
	OldReaction []ReactionType `json:"old_reaction"`
	NewReaction []ReactionType `json:"new_reaction"`
}

type ReactionCount struct {
	Type       ReactionType `json:"type"`
	TotalCount int          `json:"total_count"`
}

type MessageReactionCountUpdated struct {
	Chat      Chat            `json:"chat"`
	MessageID int             `json:"message_id"`
	Date      int64           `json:"date"`
	Reactions []ReactionCount `json:"reactions"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

type ReplyKeyboardMarkup struct {
	Keyboard        [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard,omitempty"`
	OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
	Selective       bool               `json:"selective,omitempty"`
}

type KeyboardButton struct {
	Text            string `json:"text"`
	RequestContact  bool   `json:"request_contact,omitempty"`
	RequestLocation bool   `json:"request_location,omitempty"`
}

type ForceReply struct {
	ForceReply bool `json:"force_reply"`
	Selective  bool `json:"selective,omitempty"`
}

type WebhookInfo struct {
	URL                  string   `json:"url"`
	HasCustomCertificate bool     `json:"has_custom_certificate"`
	PendingUpdateCount   int      `json:"pending_update_count"`
	LastErrorDate        int64    `json:"last_error_date,omitempty"`
	LastErrorMessage     string   `json:"last_error_message,omitempty"`
	MaxConnections       int      `json:"max_connections,omitempty"`
	AllowedUpdates       []string `json:"allowed_updates,omitempty"`
}
