// Package treepath はコメントツリー上の位置を祖先IDの列（マテリアライズドパス）として表現する。
//
// テキスト表現はPostgreSQLのltree形式（"12.40.41"）で、各ラベルはコメントIDである。
// ルートコメントのパスは自身のIDのみからなり、子のパスは親のパスに自身のIDを連結したものになる。
package treepath

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// separator はltreeのラベル区切り文字。
const separator = "."

// ErrInvalidPath はltree形式として解釈できないパス文字列を表す。
var ErrInvalidPath = errors.New("invalid tree path")

// Path はルートから自身までのコメントIDの列。
// ゼロ値は空パスで、どのコメントの位置も表さない。
type Path struct {
	labels []int32
}

// New はラベル列からPathを生成する。引数のスライスはコピーされる。
func New(labels ...int32) Path {
	cp := make([]int32, len(labels))
	copy(cp, labels)
	return Path{labels: cp}
}

// Parse はltree形式の文字列をPathに変換する。
// 空文字列、空ラベル、数値でないラベル、負のIDはエラーになる。
func Parse(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	parts := strings.Split(s, separator)
	labels := make([]int32, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil || n < 0 {
			return Path{}, fmt.Errorf("%w: label %q in %q", ErrInvalidPath, p, s)
		}
		labels[i] = int32(n)
	}
	return Path{labels: labels}, nil
}

// MustParse はParseのpanic版。テストや定数定義で使用する。
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Assign は挿入時に書き込み側が割り当てるパスの規約を表す。
// parentがnilならルートとして自身のIDのみ、そうでなければ親のパスの末尾にidを追加する。
func Assign(parent *Path, id int32) Path {
	if parent == nil {
		return New(id)
	}
	labels := make([]int32, 0, len(parent.labels)+1)
	labels = append(labels, parent.labels...)
	labels = append(labels, id)
	return Path{labels: labels}
}

// String はltree形式の文字列を返す。
func (p Path) String() string {
	if len(p.labels) == 0 {
		return ""
	}
	var b strings.Builder
	for i, l := range p.labels {
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString(strconv.FormatInt(int64(l), 10))
	}
	return b.String()
}

// IsZero は空パスかどうかを返す。
func (p Path) IsZero() bool {
	return len(p.labels) == 0
}

// Depth はパスのラベル数を返す。ルートコメントは1。
func (p Path) Depth() int {
	return len(p.labels)
}

// Labels はラベル列のコピーを返す。
func (p Path) Labels() []int32 {
	cp := make([]int32, len(p.labels))
	copy(cp, p.labels)
	return cp
}

// Last はパスが指すコメント自身のIDを返す。空パスでは0, falseを返す。
func (p Path) Last() (int32, bool) {
	if len(p.labels) == 0 {
		return 0, false
	}
	return p.labels[len(p.labels)-1], true
}

// Parent は直近の親のパスを返す。ルートコメントでは空パスを返す。
func (p Path) Parent() Path {
	if len(p.labels) <= 1 {
		return Path{}
	}
	return New(p.labels[:len(p.labels)-1]...)
}

// Equal は2つのパスが同一かどうかを返す。
func (p Path) Equal(other Path) bool {
	if len(p.labels) != len(other.labels) {
		return false
	}
	for i := range p.labels {
		if p.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}

// ContainsSubtree はcandidateがpの指すコメント自身またはその子孫であればtrueを返す。
// ltreeの `candidate <@ p` と同じ意味で、文字列の前方一致ではなくラベル単位で比較する
// （"1.2" は "1.20" を含まない）。空パスは何も含まない。
func (p Path) ContainsSubtree(candidate Path) bool {
	if len(p.labels) == 0 || len(candidate.labels) < len(p.labels) {
		return false
	}
	for i, l := range p.labels {
		if candidate.labels[i] != l {
			return false
		}
	}
	return true
}

// IsStrictDescendantOf はpがancestorの真の子孫（自身を除く）であればtrueを返す。
func (p Path) IsStrictDescendantOf(ancestor Path) bool {
	return len(p.labels) > len(ancestor.labels) && ancestor.ContainsSubtree(p)
}

// Value はdriver.Valuerを実装し、ltreeのテキスト表現を書き込む。
func (p Path) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.String(), nil
}

// Scan はsql.Scannerを実装し、ltreeのテキスト表現を読み込む。
func (p *Path) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = Path{}
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidPath, src)
	}
}

// MarshalText はencoding.TextMarshalerを実装する。
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText はencoding.TextUnmarshalerを実装する。空文字列は空パスになる。
func (p *Path) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = Path{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
