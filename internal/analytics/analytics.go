package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"lumigen/internal/storage"
)

// DailyStats summarises one day of committed chat exchanges.
type DailyStats struct {
	Date          string               `json:"date"`
	TotalMessages int                  `json:"total_messages"`
	UniqueUsers   int                  `json:"unique_users"`
	Conversations int                  `json:"conversations"`
	BySource      map[string]int       `json:"by_source"`
	UserStats     map[string]UserStats `json:"user_stats"`
}

type UserStats struct {
	UserID        string `json:"user_id"`
	Messages      int    `json:"messages"`
	Conversations int    `json:"conversations"`
}

// AnalyzeDailyLogs counts the exchanges that happened on targetDate, in its
// location.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		BySource:  make(map[string]int),
		UserStats: make(map[string]UserStats),
	}
	conversations := make(map[string]bool)
	userConversations := make(map[string]map[string]bool)

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.UserMessage == "" {
			continue
		}
		stats.TotalMessages++
		if event.Source != "" {
			stats.BySource[event.Source]++
		}

		userStat, ok := stats.UserStats[event.UserID]
		if !ok {
			userStat = UserStats{UserID: event.UserID}
			userConversations[event.UserID] = make(map[string]bool)
		}
		userStat.Messages++
		if event.ConversationID != "" {
			conversations[event.UserID+"/"+event.ConversationID] = true
			userConversations[event.UserID][event.ConversationID] = true
		}
		userStat.Conversations = len(userConversations[event.UserID])
		stats.UserStats[event.UserID] = userStat
	}

	stats.UniqueUsers = len(stats.UserStats)
	stats.Conversations = len(conversations)
	return stats
}

// GenerateReportSummary renders the stats as a short plain-text report.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resumo do Lumigen em %s:\n", ds.Date)
	fmt.Fprintf(&b, "- Mensagens: %d\n", ds.TotalMessages)
	fmt.Fprintf(&b, "- Usuários únicos: %d\n", ds.UniqueUsers)
	fmt.Fprintf(&b, "- Conversas ativas: %d\n", ds.Conversations)

	if len(ds.BySource) > 0 {
		b.WriteString("\nPor canal:\n")
		for _, src := range sortedKeys(ds.BySource) {
			fmt.Fprintf(&b, "- %s: %d\n", src, ds.BySource[src])
		}
	}

	if len(ds.UserStats) > 0 {
		b.WriteString("\nPor usuário:\n")
		ids := make([]string, 0, len(ds.UserStats))
		for id := range ds.UserStats {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			u := ds.UserStats[id]
			fmt.Fprintf(&b, "- %s: %d mensagens em %d conversas\n", id, u.Messages, u.Conversations)
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
