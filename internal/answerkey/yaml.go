package answerkey

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
)

// File is the on-disk form of one workbook's answer key:
//
//	workbook:
//	  id: math-5a
//	  title: 算数 5年 上
//	answers:
//	  - problemNumber: "(1)"
//	    correctAnswer: "40"
//	    problemPageNumber: 40
//	    pageNumber: 2
type File struct {
	Workbook Workbook     `yaml:"workbook"`
	Answers  []fileRecord `yaml:"answers"`
}

type fileRecord struct {
	ID                string `yaml:"id"`
	ProblemNumber     string `yaml:"problemNumber"`
	CorrectAnswer     string `yaml:"correctAnswer"`
	ProblemPageNumber *int   `yaml:"problemPageNumber"`
	PageNumber        int    `yaml:"pageNumber"`
}

// Decode reads an answer key file. Records keep file order and are validated.
func Decode(r io.Reader) (Workbook, []Record, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Workbook{}, nil, fmt.Errorf("decode answer key: %w", err)
	}
	if f.Workbook.ID == "" {
		return Workbook{}, nil, fmt.Errorf("%w: workbook.id required", ErrInvalidRecord)
	}

	records := make([]Record, 0, len(f.Answers))
	for i, a := range f.Answers {
		rec := Record{
			WorkbookID: f.Workbook.ID,
			AnswerKeyRecord: grading.AnswerKeyRecord{
				ID:                a.ID,
				ProblemNumber:     a.ProblemNumber,
				CorrectAnswer:     a.CorrectAnswer,
				ProblemPageNumber: a.ProblemPageNumber,
				PageNumber:        a.PageNumber,
			},
		}
		if err := Validate(rec); err != nil {
			return Workbook{}, nil, fmt.Errorf("answers[%d]: %w", i, err)
		}
		records = append(records, rec)
	}
	return f.Workbook, records, nil
}

func LoadFile(path string) (Workbook, []Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Workbook{}, nil, err
	}
	defer f.Close()
	return Decode(f)
}
