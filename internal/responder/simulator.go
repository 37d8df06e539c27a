// Package responder provides the implementations of chat.Responder: the
// canned-reply simulator, hosted models and the remote chat backend.
package responder

import (
	"context"
	"fmt"
	"strings"

	"lumigen/internal/chat"
)

// Rule answers every question containing Keyword (case-insensitive).
type Rule struct {
	Keyword string
	Reply   string
}

var DefaultRules = []Rule{
	{
		Keyword: "python",
		Reply: "Temos um curso fictício chamado \"Lógica de Programação com Python\". " +
			"Nele você pratica decomposição de problemas, raciocínio com variáveis, condicionais e loops, " +
			"além de estruturar funções pequenas e reutilizáveis. " +
			"A lógica de programação é o passo a passo que organiza o pensamento antes mesmo do código; " +
			"Python é perfeito para isso porque a sintaxe é simples e deixa você focar no raciocínio.",
	},
	{
		Keyword: "java",
		Reply: "Para perguntas sobre Java, recomendo o curso fictício \"Estruturação de Classes em Java\". " +
			"Você aprende a modelar domínios em classes, organizar atributos e métodos e criar relações claras entre objetos. " +
			"Java usa classes porque segue o paradigma de orientação a objetos: " +
			"encapsula estado/comportamento, facilita reuso (herança/interfaces) e deixa o código modular e testável.",
	},
}

const echoTemplate = "Esta é uma resposta simulada para: \"%s\"\n\nQuando integrar o LangChain, esta mensagem será substituída pela resposta real da IA."

// Simulator picks a canned reply by keyword. It is deterministic and needs no
// network.
type Simulator struct {
	rules []Rule
}

func NewSimulator(rules ...Rule) *Simulator {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Simulator{rules: rules}
}

// Respond returns the reply of the first matching rule, or an echo of the
// question when none matches.
func (s *Simulator) Respond(question string) string {
	lower := strings.ToLower(question)
	for _, r := range s.rules {
		if strings.Contains(lower, strings.ToLower(r.Keyword)) {
			return r.Reply
		}
	}
	return fmt.Sprintf(echoTemplate, question)
}

func (s *Simulator) Reply(_ context.Context, req chat.Request) (string, error) {
	return s.Respond(req.Question), nil
}
