package http

import (
	"encoding/json"
	"strings"

	"github.com/vovakirdan/termchat-server/internal/core"
	"github.com/vovakirdan/termchat-server/internal/proto"
)

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// inboundToCommand maps a frame from a connection identified as user.
func inboundToCommand(user string, inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, badRequest("invalid join payload")
		}
		if strings.TrimSpace(join.Room) == "" {
			return nil, badRequest("room is required")
		}
		return &core.Command{Kind: core.CommandJoinRoom, Room: join.Room}, nil
	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, badRequest("invalid msg payload")
		}
		if msg.User != "" && msg.User != user {
			return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "user does not match session"}
		}
		return commandFromText(msg.Text)
	case proto.InboundTypeTyping, proto.InboundTypeStopTyping:
		kind := core.CommandTyping
		if inbound.Type == proto.InboundTypeStopTyping {
			kind = core.CommandStopTyping
		}
		return &core.Command{Kind: kind}, nil
	case proto.InboundTypeDM:
		var dm proto.DMData
		if err := json.Unmarshal(inbound.Data, &dm); err != nil {
			return nil, badRequest("invalid dm payload")
		}
		if strings.TrimSpace(dm.User) == "" {
			return nil, badRequest("user is required")
		}
		return &core.Command{Kind: core.CommandDirectMessage, User: dm.User}, nil
	case proto.InboundTypeFactoryReset:
		var reset proto.FactoryResetData
		if err := json.Unmarshal(inbound.Data, &reset); err != nil {
			return nil, badRequest("invalid factory_reset payload")
		}
		return &core.Command{Kind: core.CommandFactoryReset, Secret: reset.Secret}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

// commandFromText turns msg text into a chat command, or into a DM or reset
// command when it starts with a slash command.
func commandFromText(text string) (*core.Command, *proto.Error) {
	switch {
	case strings.HasPrefix(text, proto.CommandPrefixDM):
		target := strings.TrimSpace(strings.TrimPrefix(text, proto.CommandPrefixDM))
		if target == "" {
			return nil, badRequest("usage: /dm <user>")
		}
		return &core.Command{Kind: core.CommandDirectMessage, User: target}, nil
	case strings.HasPrefix(text, proto.CommandPrefixReset):
		secret := strings.TrimSpace(strings.TrimPrefix(text, proto.CommandPrefixReset))
		return &core.Command{Kind: core.CommandFactoryReset, Secret: secret}, nil
	default:
		return &core.Command{Kind: core.CommandSendMessage, Text: text}, nil
	}
}

func messageToProto(msg core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:   msg.ID,
		Room: msg.Room,
		User: msg.From,
		Text: msg.Text,
		TS:   msg.CreatedAt.Unix(),
	}
}

func messagesToProto(msgs []core.Message) []proto.EventMessage {
	out := make([]proto.EventMessage, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, messageToProto(msg))
	}
	return out
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent}
	switch event.Kind {
	case core.EventRoomMessage:
		out.Event = proto.EventNameMessage
		out.Data = messageToProto(event.Message)
	case core.EventHistory:
		out.Event = proto.EventNameHistory
		out.Data = proto.EventHistory{
			Room:     event.Room,
			Messages: messagesToProto(event.Messages),
		}
	case core.EventUserCount:
		out.Event = proto.EventNameUserCount
		out.Data = proto.EventUserCount{Count: event.Count}
	case core.EventTyping:
		out.Event = proto.EventNameTyping
		out.Data = proto.EventTyping{Room: event.Room, User: event.User}
	case core.EventStopTyping:
		out.Event = proto.EventNameStopTyping
		out.Data = proto.EventTyping{Room: event.Room, User: event.User}
	case core.EventNewDM:
		out.Event = proto.EventNameNewDM
		out.Data = proto.EventNewDM{From: event.User, Room: event.Room}
	case core.EventSystem:
		out.Event = proto.EventNameSystem
		out.Data = proto.EventSystem{Text: event.Text}
	}
	return out
}
