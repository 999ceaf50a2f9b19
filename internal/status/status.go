// Package status 行动链接状态的封闭枚举及其持久化 ID 映射
package status

import (
	"fmt"
	"strings"
)

// Status 链接状态，数值即数据库中的 status_id
type Status int

const (
	Active       Status = 1
	Inactive     Status = 2
	Expired      Status = 3
	LimitReached Status = 4
)

var names = map[Status]string{
	Active:       "Active",
	Inactive:     "Inactive",
	Expired:      "Expired",
	LimitReached: "LimitReached",
}

// ID 返回持久化使用的 ID
func (s Status) ID() int {
	return int(s)
}

func (s Status) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Valid 判断是否属于已知状态
func (s Status) Valid() bool {
	_, ok := names[s]
	return ok
}

// GetByName 按名称查找状态（大小写不敏感）
func GetByName(name string) (Status, error) {
	trimmed := strings.TrimSpace(name)
	for s, n := range names {
		if strings.EqualFold(n, trimmed) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown link status %q", name)
}

// GetByID 按持久化 ID 查找状态
func GetByID(id int) (Status, error) {
	s := Status(id)
	if !s.Valid() {
		return 0, fmt.Errorf("unknown link status id %d", id)
	}
	return s, nil
}

// ResolveNames 将一组状态名称解析为状态，任意一个未知即失败
func ResolveNames(list []string) ([]Status, error) {
	out := make([]Status, 0, len(list))
	for _, name := range list {
		s, err := GetByName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
