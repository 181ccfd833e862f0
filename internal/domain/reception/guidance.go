package reception

import (
	"strings"

	"github.com/mediq/mediq/internal/domain/schedule"
)

// Guidance text is read aloud by the kiosk, so the phonetic name is used
// and the wording stays fixed.

func guidanceForSchedule(s *schedule.Schedule, nameKana string) string {
	if len(s.Examinations) > 0 {
		names := make([]string, len(s.Examinations))
		for i, e := range s.Examinations {
			names[i] = e.Name
		}
		return "ようこそ。" + nameKana + "さん、" + strings.Join(names, "検査、") +
			"検査がありますので、" + s.WaitingAreaName + "前でお待ちください。" +
			s.DoctorName + "先生が担当します。お待ちしております。"
	}
	return "ようこそ。" + nameKana + "さん、検査がある場合は" + s.DepartmentName +
		"前に、無い場合は" + s.WaitingAreaName + "前にお越しください。" +
		s.DoctorName + "先生が担当します。お待ちしております。"
}

func guidanceNoAppointment(nameKana string) string {
	return "ようこそ、" + nameKana + "様。本日の診察予定が見つかりませんでした。受付窓口にお越しください。"
}
