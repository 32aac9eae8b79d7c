// Package ranking はHot/Activeソートで使う時間減衰型の人気スコアを提供する。
package ranking

import (
	"fmt"
	"math"
	"time"
)

// Ranker はスコアと経過時間から順位付け用の値を計算するポリシー。
//
// Rankはスコアについて単調増加、経過時間について単調減少でなければならない。
// SQLは同じ曲線をPostgreSQLの式として返し、ストア側で並び替えを行う際に使われる。
type Ranker interface {
	Rank(score int64, age time.Duration) float64
	SQL(score, published, now string) string
}

// Decay は (スコア項) / (経過時間 + OffsetHours)^Gravity で減衰するランキング。
//
// スコア項は正のスコアに対して 1 + log10(1 + score)、0以下に対して 1 / (1 - score) で、
// 常に正かつスコアについて狭義単調増加となる。
type Decay struct {
	Gravity     float64
	OffsetHours float64
}

// DefaultDecay はデフォルトの減衰パラメータ。
var DefaultDecay = Decay{Gravity: 1.8, OffsetHours: 2}

// numerator はスコア項を計算する。
func numerator(score int64) float64 {
	if score > 0 {
		return 1 + math.Log10(1+float64(score))
	}
	return 1 / (1 - float64(score))
}

// Rank は減衰後の値を返す。未来の投稿（負の経過時間）は経過0として扱う。
func (d Decay) Rank(score int64, age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	return numerator(score) / math.Pow(hours+d.OffsetHours, d.Gravity)
}

// SQL はRankと同じ曲線のPostgreSQL式を返す。
// 引数は列名またはプレースホルダで、呼び出し側が信頼できる値のみを渡すこと。
func (d Decay) SQL(score, published, now string) string {
	return fmt.Sprintf(
		"((CASE WHEN %[1]s > 0 THEN 1 + log(1 + %[1]s) ELSE 1.0 / (1 - %[1]s) END)"+
			" / power(GREATEST(EXTRACT(EPOCH FROM (%[3]s - %[2]s)) / 3600.0, 0) + %[4]s, %[5]s))",
		score, published, now, formatFloat(d.OffsetHours), formatFloat(d.Gravity),
	)
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

// Validate はパラメータが単調性を満たす範囲にあるかを確認する。
func (d Decay) Validate() error {
	if d.Gravity <= 0 || math.IsNaN(d.Gravity) || math.IsInf(d.Gravity, 0) {
		return fmt.Errorf("ranking: gravity must be positive, got %v", d.Gravity)
	}
	if d.OffsetHours <= 0 || math.IsNaN(d.OffsetHours) || math.IsInf(d.OffsetHours, 0) {
		return fmt.Errorf("ranking: offset hours must be positive, got %v", d.OffsetHours)
	}
	return nil
}

var _ Ranker = Decay{}
