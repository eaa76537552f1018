package questiondoc

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"quiz-bot/internal/quiz"
)

const maxXLSXOptions = 8

// decodeXLSX reads the first sheet. The header row names the columns:
// question, option_a..option_h, answer ("2" or "0,2"), and optional type,
// marks, topic and image.
func decodeXLSX(data []byte) (rawDocument, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return rawDocument{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return rawDocument{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return rawDocument{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return rawDocument{}, fmt.Errorf("sheet needs a header row and at least one question row")
	}

	headerMap := make(map[string]int)
	var optionCols []int
	for i, header := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(header))
		headerMap[name] = i
		if strings.HasPrefix(name, "option_") {
			optionCols = append(optionCols, i)
		}
	}
	if _, ok := headerMap["question"]; !ok {
		return rawDocument{}, fmt.Errorf("missing question column")
	}

	var raw rawDocument
	raw.Title = strings.TrimSpace(sheets[0])
	for _, record := range rows[1:] {
		getColumn := func(name string) string {
			if index, exists := headerMap[name]; exists && index < len(record) {
				return strings.TrimSpace(record[index])
			}
			return ""
		}
		if strings.Join(record, "") == "" {
			continue
		}

		rq := rawQuestion{
			Q:     getColumn("question"),
			Type:  getColumn("type"),
			Topic: getColumn("topic"),
		}
		for _, col := range optionCols {
			if col < len(record) {
				if text := strings.TrimSpace(record[col]); text != "" {
					rq.Options = append(rq.Options, text)
				}
			}
		}
		rq.Answer = parseAnswerCell(getColumn("answer"))
		if marks := getColumn("marks"); marks != "" {
			if n, err := strconv.Atoi(marks); err == nil {
				rq.Marks = n
			} else {
				rq.Marks = -1
			}
		}
		if image := getColumn("image"); image != "" {
			rq.ImgURL = &image
		}
		raw.Questions = append(raw.Questions, rq)
	}
	return raw, nil
}

// parseAnswerCell reads "2" or "0, 2". A comma makes it a list even with one
// entry. Unparseable entries become -1 so validation rejects the row.
func parseAnswerCell(cell string) answerValue {
	if cell == "" {
		return answerValue{}
	}
	var ans answerValue
	parts := strings.Split(cell, ",")
	ans.List = len(parts) > 1
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			n = -1
		}
		ans.Indices = append(ans.Indices, n)
	}
	return ans
}

// WriteXLSX exports questions in the layout decodeXLSX reads.
func WriteXLSX(w io.Writer, title string, questions []quiz.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Questions"
	if title != "" {
		sheet = sanitizeSheetName(title)
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"question"}
	for i := 0; i < maxXLSXOptions; i++ {
		header = append(header, "option_"+strings.ToLower(quiz.OptionLetter(i)))
	}
	header = append(header, "answer", "type", "marks", "topic", "image")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, q := range questions {
		if len(q.Options) > maxXLSXOptions {
			return fmt.Errorf("question %d has %d options, at most %d fit", i+1, len(q.Options), maxXLSXOptions)
		}
		row := []any{q.Prompt}
		for j := 0; j < maxXLSXOptions; j++ {
			if j < len(q.Options) {
				row = append(row, q.Options[j])
			} else {
				row = append(row, "")
			}
		}
		answers := make([]string, len(q.Correct))
		for j, idx := range q.Correct {
			answers[j] = strconv.Itoa(idx)
		}
		row = append(row, strings.Join(answers, ","), string(q.Kind), q.Points, q.Topic, q.MediaURL)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, name)
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}
	return name
}
