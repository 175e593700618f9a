package report

import (
	"fmt"
	"strings"
	"unicode"
)

const summaryTemplate = `REPORT FOR %s %d

Designers:
- Tasks received: %d
- Tasks completed: %d

Text tasks:
- Received: %d
- Completed: %d

Tasks without assignee:
- Received: %d
- Completed: %d

COMPLETED TASK STATISTICS FOR DESIGNERS AND TASKS WITHOUT ASSIGNEE:
(only tasks completed within the reporting period)`

const summaryTemplateRU = `ОТЧЕТ ЗА %s %d ГОДА

Дизайнеры:
- Поступило задач: %d
- Выполнено задач: %d

Текстовые задачи:
- Поступило: %d
- Выполнено: %d

Задачи без ответственного:
- Поступило: %d
- Выполнено: %d

СТАТИСТИКА ПО ВЫПОЛНЕННЫМ ЗАДАЧАМ ДИЗАЙНЕРОВ И ЗАДАЧАМ БЕЗ ОТВЕТСТВЕННОГО:
(только задачи, завершенные в отчетном периоде)`

// RenderSummary fills the fixed text template with the bucket counts.
// A Cyrillic month name selects the Russian wording.
func RenderSummary(monthName string, year int, b Buckets) string {
	tmpl := summaryTemplate
	if strings.IndexFunc(monthName, isCyrillic) >= 0 {
		tmpl = summaryTemplateRU
	}
	return fmt.Sprintf(tmpl,
		upperTitle(monthName), year,
		b.CreatedDesigner, b.CompletedDesigner,
		b.CreatedText, b.CompletedText,
		b.CreatedUnassigned, b.CompletedUnassigned,
	)
}

func isCyrillic(r rune) bool { return unicode.Is(unicode.Cyrillic, r) }
