package dataset

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

// LoadInteractions 从文本文件加载交互记录。
//
// 支持 RecBole 风格的 .inter 文件（制表符分隔，首行为
// "user_id:token\titem_id:token\trating:float\ttimestamp:float" 形式的表头），
// 也兼容无表头的 TSV/CSV：前两列为 user/item，第三、四列（可选）为 rating/timestamp。
func LoadInteractions(path string) ([]Interaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interactions: %w", err)
	}
	defer f.Close()

	var out []Interaction
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) == 1 {
			fields = strings.Split(line, ",")
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 columns, got %d", lineNo, len(fields))
		}

		userID, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			// 首行解析失败视为表头，跳过
			if lineNo == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: parse user id: %w", lineNo, err)
		}
		itemID, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse item id: %w", lineNo, err)
		}

		in := Interaction{UserID: userID, ItemID: itemID, Rating: 1}
		if len(fields) >= 3 {
			if r, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err == nil {
				in.Rating = r
			}
		}
		if len(fields) >= 4 {
			if ts, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64); err == nil {
				in.Ts = int64(ts)
			}
		}
		out = append(out, in)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}
	return out, nil
}

// SplitRatio 把交互按比例切成训练/测试两份（每用户独立切分，保证测试用户在训练集中出现过）。
// ratio 是训练集占比 (0, 1)；交互少于 2 条的用户全部进训练集。
// 切分顺序由 seed 决定，相同输入与 seed 产出相同切分。
func SplitRatio(interactions []Interaction, ratio float64, seed int64) (train, test []Interaction) {
	byUser := make(map[int64][]Interaction)
	order := make([]int64, 0)
	for _, in := range interactions {
		if _, ok := byUser[in.UserID]; !ok {
			order = append(order, in.UserID)
		}
		byUser[in.UserID] = append(byUser[in.UserID], in)
	}

	rng := rand.New(rand.NewSource(seed))
	for _, u := range order {
		ins := byUser[u]
		if len(ins) < 2 {
			train = append(train, ins...)
			continue
		}
		shuffled := make([]Interaction, len(ins))
		copy(shuffled, ins)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		cut := int(float64(len(shuffled)) * ratio)
		if cut < 1 {
			cut = 1
		}
		if cut >= len(shuffled) {
			cut = len(shuffled) - 1
		}
		train = append(train, shuffled[:cut]...)
		test = append(test, shuffled[cut:]...)
	}
	return train, test
}

// SplitLeaveOneOut 每用户留出时间戳最大的一条交互作为测试集，其余进训练集。
// 交互只有一条的用户全部进训练集。时间戳相同时保留原始次序中靠后的一条。
func SplitLeaveOneOut(interactions []Interaction) (train, test []Interaction) {
	lastIdx := make(map[int64]int)
	count := make(map[int64]int)
	for i, in := range interactions {
		count[in.UserID]++
		if j, ok := lastIdx[in.UserID]; !ok || in.Ts >= interactions[j].Ts {
			lastIdx[in.UserID] = i
		}
	}
	for i, in := range interactions {
		if count[in.UserID] > 1 && lastIdx[in.UserID] == i {
			test = append(test, in)
			continue
		}
		train = append(train, in)
	}
	return train, test
}
