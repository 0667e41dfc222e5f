package keywords

import (
	"context"
	"fmt"
	"log"

	"landseek/models"
)

// Extractor turns a natural-language query into a structured search filter.
type Extractor interface {
	Extract(ctx context.Context, query string) (*models.SearchFilter, error)
}

const systemPrompt = `부동산 검색어에서 키워드 추출. 아래 조건에 맞춰 JSON 형식만 반환:

{
  "address": "시·도 + 시·군·구 최소 형태 필수",
  "transaction_type": ["매매", "전세", "월세", "단기임대"] 중 1개 이상,
  "building_type": ["아파트", "오피스텔", "빌라", "아파트분양권", "오피스텔분양권", "재건축", "전원주택", "단독/다가구", "상가주택", "한옥주택", "재개발", "원룸", "상가", "사무실", "공장/창고", "건물", "토지", "지식산업센터"] 중 1개 이상,
  "sale_price": [최대값] 또는 [최소값, 최대값] 정수 배열 또는 null,
  "deposit": [최대값] 또는 [최소값, 최대값] 정수 배열 또는 null,
  "monthly_rent": [최대값] 또는 [최소값, 최대값] 정수 배열 또는 null,
  "area_range": "~ 10평|10평대|20평대|30평대|40평대|50평대|60평대|70평 ~" 중 하나 또는 null
}

필수 검증 규칙:
1. address: 시·도만 있고 시·군·구가 없으면 에러 반환
2. transaction_type: 배열 형태, 최소 1개 필수, 없으면 에러 반환
3. building_type: 배열 형태, 최소 1개 필수, 없으면 에러 반환
4. sale_price: 선택, 정수 배열 [최대값] 또는 [최소값, 최대값] 또는 null (여러 값이 있는 경우 최소/최대값만 반환)
5. deposit: 선택, 정수 배열 [최대값] 또는 [최소값, 최대값] 또는 null (여러 값이 있는 경우 최소/최대값만 반환)
6. monthly_rent: 선택, 정수 배열 [최대값] 또는 [최소값, 최대값] 또는 null (여러 값이 있는 경우 최소/최대값만 반환)
7. area_range: 선택, "~ 10평|10평대|20평대|30평대|40평대|50평대|60평대|70평 ~" 중 하나 또는 null

모든 가격은 원(₩) 단위 정수로 변환하여 반환.
값이 없는 선택 필드는 반드시 JSON null로 반환.
위 스키마 외 다른 필드는 포함하지 말 것.

중요: deposit과 monthly_rent는 배열에 최대 2개 요소만 허용됩니다.
- 단일 값: [최대값] 형태로 반환
- 범위 값: [최소값, 최대값] 형태로 반환
- 여러 개의 값이 추출된 경우, 반드시 최소값과 최대값만 선별하여 반환하세요.`

// ChatExtractor extracts filters via a chat completion model.
type ChatExtractor struct {
	chat ChatCompleter
}

func NewChatExtractor(chat ChatCompleter) *ChatExtractor {
	return &ChatExtractor{chat: chat}
}

func (e *ChatExtractor) Extract(ctx context.Context, query string) (*models.SearchFilter, error) {
	reply, err := e.chat.Complete(ctx, systemPrompt, "쿼리: "+query)
	if err != nil {
		return nil, fmt.Errorf("keyword extraction: %w", err)
	}

	filter, err := ParseFilter(reply)
	if err != nil {
		log.Printf("Keyword extraction rejected reply for query %q: %v", query, err)
		return nil, err
	}
	return filter, nil
}
