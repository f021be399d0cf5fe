package service

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"atlas/api/log"
	"atlas/api/model"
)

type EventType string

const (
	EventProgress EventType = "progress"
	EventReady    EventType = "ready"
	EventUpdate   EventType = "update"
	EventError    EventType = "error"
)

// Event 同步过程中的通知，在写 goroutine 上同步分发，观察者不能阻塞
type Event struct {
	Type      EventType    `json:"type"`
	Progress  float64      `json:"progress,omitempty"`
	UpdatedAt int64        `json:"updatedAt,omitempty"`
	Count     int          `json:"count,omitempty"`
	Tiles     []model.Tile `json:"tiles,omitempty"`
	Err       error        `json:"-"`
}

type Observer func(Event)

// LogObserver 进度每 10% 打一条日志
func LogObserver() Observer {
	last := -1
	return func(e Event) {
		switch e.Type {
		case EventProgress:
			step := int(e.Progress) / 10
			if step != last {
				last = step
				log.Infof("map: loading tiles %.0f%%", e.Progress)
			}
		case EventReady:
			log.WithField("updatedAt", e.UpdatedAt).Infof("map: ready with %d tiles", e.Count)
		case EventUpdate:
			log.WithField("updatedAt", e.UpdatedAt).Infof("map: applied %d updated tiles", e.Count)
		case EventError:
			log.Errorf("map: %v", e.Err)
		}
	}
}

// ProgressBarObserver 在终端里显示全量加载进度，加载完成后不再输出
func ProgressBarObserver(w io.Writer) Observer {
	var (
		once sync.Once
		bar  *progressbar.ProgressBar
	)
	return func(e Event) {
		if e.Type != EventProgress {
			return
		}
		once.Do(func() {
			bar = progressbar.NewOptions(100,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("loading tiles"),
				progressbar.OptionClearOnFinish(),
			)
		})
		_ = bar.Set(int(e.Progress))
	}
}
